package draft

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// TextImporter handles plain text files. Blank lines separate paragraphs.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*lesson.Lesson, error) {
	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(baseTitle(filename))
	for _, para := range paragraphs {
		b.Paragraph(textToHTML(para))
	}
	return b.Lesson(), nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}

// textToHTML escapes plain text and keeps its line breaks.
func textToHTML(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(strings.TrimSpace(l))
	}
	return strings.Join(lines, "<br/>")
}
