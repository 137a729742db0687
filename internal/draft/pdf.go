package draft

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// PDFImporter handles PDF files. It tries the Go library first, then falls
// back to pdftotext if enabled. Every page becomes a section.
type PDFImporter struct {
	FallbackPdftotext bool
}

func (p *PDFImporter) Import(r io.Reader, filename string) (*lesson.Lesson, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lessongen-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := pdfPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return pagesToLesson(baseTitle(filename), pages), nil
}

// pagesToLesson opens a "Page N" section for every page with text.
func pagesToLesson(title string, pages []string) *lesson.Lesson {
	b := NewBuilder(title)
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		b.Section(fmt.Sprintf("Page %d", i+1))
		paragraphs, _ := splitParagraphs(strings.NewReader(page))
		for _, para := range paragraphs {
			b.Paragraph(textToHTML(para))
		}
	}
	return b.Lesson()
}

// pdfPages returns the plain text of every page. Pages that fail to decode
// are kept as empty strings so page numbers stay aligned.
func pdfPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		if text, err := page.GetPlainText(nil); err == nil {
			pages[i] = text
		}
	}
	return pages, nil
}

const pdftotextTimeout = 60 * time.Second

// pdftotextPages runs poppler's pdftotext, which separates pages with form feeds.
func pdftotextPages(path string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
