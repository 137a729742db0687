package draft

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/preview"
)

// HTMLImporter handles HTML files.
type HTMLImporter struct{}

func (p *HTMLImporter) Import(r io.Reader, filename string) (*lesson.Lesson, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := NewBuilder(baseTitle(filename))
	if title := findTitle(doc); title != "" {
		b.Title(title)
	}

	titled := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				title := textContent(n)
				switch {
				case level == 1 && !titled:
					b.Title(title)
					titled = true
				case level <= 2:
					b.Section(title)
				default:
					b.Label(title)
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p":
				b.Paragraph(innerHTML(n))
				return
			case "blockquote":
				if t := innerHTML(n); t != "" {
					b.Add(lesson.Block{Type: lesson.Quote, Content: t})
				}
				return
			case "ul", "ol":
				var items []lesson.Item
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "li" {
						if t := innerHTML(c); t != "" {
							items = append(items, lesson.TextItem(t))
						}
					}
				}
				if len(items) > 0 {
					b.Add(lesson.Block{Type: lesson.List, Items: items})
				}
				return
			case "pre":
				var items []lesson.Item
				for _, line := range strings.Split(rawText(n), "\n") {
					if line = strings.TrimRight(line, " \t\r"); strings.TrimSpace(line) != "" {
						items = append(items, lesson.TextItem(line))
					}
				}
				if len(items) > 0 {
					b.Add(lesson.Block{Type: lesson.CodeBlock, Items: items})
				}
				return
			case "table":
				if block, ok := htmlTable(n); ok {
					b.Add(block)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.Lesson(), nil
}

// htmlTable reads the header row from <th> cells (or the first row) and the
// remaining rows as one group.
func htmlTable(t *html.Node) (lesson.Block, bool) {
	var rows [][]string
	headerRow := -1
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			allTH := true
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, innerHTML(c))
					allTH = allTH && c.Data == "th"
				}
			}
			if len(cells) > 0 {
				if allTH && headerRow < 0 {
					headerRow = len(rows)
				}
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(t)
	if len(rows) == 0 {
		return lesson.Block{}, false
	}
	if headerRow < 0 {
		headerRow = 0
	}

	block := lesson.Block{Type: lesson.Table, Headers: rows[headerRow]}
	var group lesson.TableGroup
	for i, r := range rows {
		if i != headerRow {
			group.Items = append(group.Items, r)
		}
	}
	block.Rows = []lesson.TableGroup{fitRows(group, len(block.Headers))}
	return block, true
}

// innerHTML renders the children of n and keeps only inline formatting.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return textContent(n)
		}
	}
	return strings.TrimSpace(string(preview.Sanitize(buf.String())))
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
