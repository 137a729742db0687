package draft

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// MarkdownImporter handles Markdown files using goldmark. Level one headings
// name the lesson, level two headings open sections and deeper headings label
// the next block.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (*lesson.Lesson, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	b := NewBuilder(baseTitle(filename))
	titled := false
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := plainText(node, src)
			switch {
			case node.Level == 1 && !titled:
				b.Title(title)
				titled = true
			case node.Level <= 2:
				b.Section(title)
			default:
				b.Label(title)
			}
		case *ast.Paragraph:
			b.Paragraph(inlineHTML(node, src))
		case *ast.Blockquote:
			var parts []string
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t := inlineHTML(c, src); t != "" {
					parts = append(parts, t)
				}
			}
			if len(parts) > 0 {
				b.Add(lesson.Block{Type: lesson.Quote, Content: strings.Join(parts, "<br/>")})
			}
		case *ast.List:
			var items []lesson.Item
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				if t := listItemText(li, src); t != "" {
					items = append(items, lesson.TextItem(t))
				}
			}
			if len(items) > 0 {
				b.Add(lesson.Block{Type: lesson.List, Items: items})
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if items := codeLines(n, src); len(items) > 0 {
				b.Add(lesson.Block{Type: lesson.CodeBlock, Items: items})
			}
		case *east.Table:
			b.Add(markdownTable(node, src))
		}
	}
	return b.Lesson(), nil
}

// inlineHTML renders a block's inline content, keeping emphasis and code
// spans as HTML and escaping everything else.
func inlineHTML(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				buf.WriteString(html.EscapeString(string(node.Value(src))))
				if node.HardLineBreak() {
					buf.WriteString("<br/>")
				} else if node.SoftLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.WriteString(html.EscapeString(string(node.Value)))
			case *ast.Emphasis:
				tag := "em"
				if node.Level >= 2 {
					tag = "strong"
				}
				buf.WriteString("<" + tag + ">")
				walk(node)
				buf.WriteString("</" + tag + ">")
			case *ast.CodeSpan:
				buf.WriteString("<code>")
				walk(node)
				buf.WriteString("</code>")
			case *ast.Link:
				buf.WriteString(`<a href="` + html.EscapeString(string(node.Destination)) + `">`)
				walk(node)
				buf.WriteString("</a>")
			case *ast.RawHTML:
				// dropped; author markup is re-entered in the editor
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// plainText returns the text of a node without markup.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				buf.Write(node.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(node.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func listItemText(li ast.Node, src []byte) string {
	var parts []string
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		if _, nested := c.(*ast.List); nested {
			continue
		}
		if t := inlineHTML(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func codeLines(n ast.Node, src []byte) []lesson.Item {
	var items []lesson.Item
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(src)), " \t\r\n")
		if strings.TrimSpace(line) != "" {
			items = append(items, lesson.TextItem(line))
		}
	}
	return items
}

func markdownTable(t *east.Table, src []byte) lesson.Block {
	block := lesson.Block{Type: lesson.Table}
	group := lesson.TableGroup{}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, inlineHTML(c, src))
		}
		if _, ok := r.(*east.TableHeader); ok {
			block.Headers = cells
			continue
		}
		group.Items = append(group.Items, cells)
	}
	block.Rows = []lesson.TableGroup{fitRows(group, len(block.Headers))}
	return block
}

// fitRows pads or truncates every row of g to n cells.
func fitRows(g lesson.TableGroup, n int) lesson.TableGroup {
	for i, row := range g.Items {
		switch {
		case len(row) > n:
			g.Items[i] = row[:n:n]
		case len(row) < n:
			g.Items[i] = append(row, make([]string, n-len(row))...)
		}
	}
	if len(g.Items) == 0 {
		g.Items = [][]string{make([]string, n)}
	}
	return g
}
