package preview

import (
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inlineTags are the elements an author may use inside text fields.
var inlineTags = map[string]bool{
	"em": true, "strong": true, "b": true, "i": true, "u": true, "br": true,
	"span": true, "code": true, "sub": true, "sup": true, "mark": true, "a": true,
}

// Elements dropped together with their content.
var droppedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true,
	"embed": true, "template": true, "noscript": true, "textarea": true,
}

// Sanitize parses an author-supplied inline fragment and re-renders it keeping
// only inline formatting. Unknown elements are unwrapped; their text stays.
func Sanitize(fragment string) template.HTML {
	if fragment == "" {
		return ""
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return template.HTML(html.EscapeString(fragment))
	}
	var sb strings.Builder
	for _, n := range nodes {
		writeNode(&sb, n)
	}
	return template.HTML(sb.String())
}

func writeNode(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(html.EscapeString(n.Data))
		return
	}
	if n.Type != html.ElementNode || droppedTags[n.Data] {
		return
	}
	if !inlineTags[n.Data] {
		writeChildren(sb, n)
		return
	}

	sb.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		if keepAttr(n.Data, a) {
			sb.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
		}
	}
	if n.Data == "br" {
		sb.WriteString("/>")
		return
	}
	sb.WriteString(">")
	writeChildren(sb, n)
	sb.WriteString("</" + n.Data + ">")
}

func writeChildren(sb *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(sb, c)
	}
}

func keepAttr(tag string, a html.Attribute) bool {
	if a.Namespace != "" {
		return false
	}
	switch {
	case tag == "a" && a.Key == "href":
		return safeURL(a.Val)
	case tag == "span" && a.Key == "class":
		return true
	}
	return false
}

func safeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	}
	return false
}

// PlainText returns the text of a fragment with all markup removed.
func PlainText(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && droppedTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}
