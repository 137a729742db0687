// Package preview projects a lesson into HTML: the read-only preview shown
// next to the editor and the data behind the editing form.
package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dgallion1/lessongen/internal/audio"
	"github.com/dgallion1/lessongen/internal/lesson"
)

const audioButton = `<span class="material-symbols-outlined audio-btn">volume_up</span>`

// AudioText sanitises s and, when it carries the audio marker, wraps it with
// a play button.
func AudioText(s string) template.HTML {
	if !audio.HasMarker(s) {
		return Sanitize(s)
	}
	return template.HTML(`<span class="audio-inline-wrapper">`) + Sanitize(audio.Strip(s)) + audioButton + `</span>`
}

// Clean sanitises s after removing the audio marker.
func Clean(s string) template.HTML {
	return Sanitize(audio.Strip(s))
}

type pageView struct {
	Breadcrumb template.HTML
	Title      template.HTML
	Subtitle   template.HTML
	Difficulty string
	Badges     []template.HTML
	Sections   []sectionView
}

type sectionView struct {
	Index  int
	Number string
	Title  template.HTML
	Grid   bool
	Blocks []template.HTML
}

type blockView struct {
	Type        string
	Label       template.HTML
	Content     template.HTML
	Value       template.HTML
	Description template.HTML
	ListClass   string
	Items       []template.HTML
	Headers     []template.HTML
	Groups      []groupView
}

type groupView struct {
	Name template.HTML
	Rows [][]template.HTML
}

var tmpl = template.Must(template.New("preview").Parse(previewTemplate))

// Render returns the preview fragment for l.
func Render(l *lesson.Lesson) (string, error) {
	page := pageView{
		Breadcrumb: Clean(l.Meta.Title),
		Title:      titleHTML(l.Meta.Title),
		Subtitle:   Sanitize(l.Meta.Subtitle),
		Difficulty: l.Meta.Difficulty,
	}
	for _, b := range l.Header.Badges {
		page.Badges = append(page.Badges, Clean(b))
	}
	for i, s := range l.Sections {
		sv := sectionView{
			Index:  i,
			Number: fmt.Sprintf("%02d", i+1),
			Title:  Clean(s.Title),
			Grid:   s.Type == lesson.GridCompare,
		}
		for _, b := range s.Blocks {
			h, err := renderBlock(b)
			if err != nil {
				return "", fmt.Errorf("section %d: %w", i, err)
			}
			sv.Blocks = append(sv.Blocks, h)
		}
		page.Sections = append(page.Sections, sv)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

// RenderPage wraps the preview fragment in a standalone HTML document.
func RenderPage(l *lesson.Lesson) (string, error) {
	body, err := Render(l)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "document", struct {
		Title string
		Body  template.HTML
	}{PlainText(audio.Strip(l.Meta.Title)), template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

// titleHTML emphasises the last word of a multi-word title.
func titleHTML(title string) template.HTML {
	title = audio.Strip(title)
	words := strings.Split(title, " ")
	if len(words) < 2 {
		return Sanitize(title)
	}
	last := words[len(words)-1]
	return Sanitize(strings.Join(words[:len(words)-1], " ")) + " <em>" + Sanitize(last) + "</em>"
}

func renderBlock(b lesson.Block) (template.HTML, error) {
	v := blockView{
		Type:        string(b.Type),
		Label:       Clean(b.Label),
		Content:     AudioText(b.Content),
		Value:       AudioText(b.Value),
		Description: Sanitize(b.Description),
		ListClass:   "verb-list",
	}
	if b.Style == "gold" {
		v.ListClass = "list-gold"
	}
	for _, it := range b.Items {
		v.Items = append(v.Items, itemHTML(b.Type, it))
	}
	for _, h := range b.Headers {
		v.Headers = append(v.Headers, Clean(h))
	}
	for _, g := range b.Rows {
		gv := groupView{Name: Clean(g.Group)}
		for _, row := range g.Items {
			cells := make([]template.HTML, len(b.Headers))
			for c := range cells {
				if c < len(row) {
					cells[c] = AudioText(row[c])
				}
			}
			gv.Rows = append(gv.Rows, cells)
		}
		v.Groups = append(v.Groups, gv)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "block", v); err != nil {
		return "", fmt.Errorf("render %s block: %w", b.Type, err)
	}
	return template.HTML(buf.String()), nil
}

func itemHTML(t lesson.BlockType, it lesson.Item) template.HTML {
	switch it.Kind {
	case lesson.ItemPair:
		return "<span>" + Clean(it.Label) + ": </span><em>" + AudioText(it.Content) + "</em>"
	case lesson.ItemRow:
		parts := make([]string, len(it.Cells))
		for i, c := range it.Cells {
			parts[i] = string(AudioText(c))
		}
		return template.HTML(strings.Join(parts, ", "))
	}
	if t == lesson.CodeBlock {
		return Clean(it.Text)
	}
	return AudioText(it.Text)
}

const previewTemplate = `
{{- define "page" -}}
<div class="page-header">
<div class="breadcrumb"><a href="#">Home</a><span class="sep">/</span><a href="#">Grammar</a><span class="sep">/</span><span>{{.Breadcrumb}}</span></div>
<div class="page-header__eyebrow">Grammar</div>
<h1 class="page-title serif-title">{{.Title}}</h1>
<p class="page-header__subtitle">{{.Subtitle}}</p>
<div class="page-header__meta"><span class="difficulty-badge">LEVEL {{.Difficulty}}</span>
{{- range $i, $b := .Badges}}{{if $i}}<span class="dot"></span>{{end}}<span>{{$b}}</span>{{end -}}
</div>
</div>
<div class="accordion">
{{- range .Sections}}
<div class="accordion-item" data-section-index="{{.Index}}">
<div class="accordion-header"><div class="accordion-title"><span class="accordion-number serif-title">{{.Number}}</span><span>{{.Title}}</span></div></div>
<div class="accordion-content"><div class="content-block">
{{- if .Grid}}<div class="grid-2">{{range .Blocks}}{{.}}{{end}}</div>{{else}}{{range .Blocks}}{{.}}{{end}}{{end -}}
</div></div>
</div>
{{- end}}
</div>
{{- end}}

{{- define "label"}}{{if .Label}}<div class="section-label">{{.Label}}</div>{{end}}{{end}}

{{- define "block"}}
{{- if eq .Type "paragraph"}}<div>{{template "label" .}}<p>{{.Content}}</p></div>
{{- else if eq .Type "quote"}}<div>{{template "label" .}}<div class="quote-box">&#34;{{.Content}}&#34;</div></div>
{{- else if eq .Type "list"}}<div>{{template "label" .}}<ul class="{{.ListClass}}">{{range .Items}}<li>{{.}}</li>{{end}}</ul></div>
{{- else if eq .Type "chips"}}<div>{{template "label" .}}<div class="chip-group">{{range .Items}}<span class="chip">{{.}}</span>{{end}}</div></div>
{{- else if eq .Type "table"}}<div>{{template "label" .}}<table class="table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- $cols := len .Headers}}
{{- range .Groups}}
{{- if .Name}}<tr class="table-group-header"><th colspan="{{$cols}}">{{.Name}}</th></tr>{{end}}
{{- range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
{{- end -}}
</tbody></table></div>
{{- else if eq .Type "code-block"}}<div class="code-block-container">{{range .Items}}<span class="code-line">{{.}}</span>{{end}}</div>
{{- else if eq .Type "info-box"}}<div class="info-box">{{.Content}}</div>
{{- else if eq .Type "card"}}<div class="card">{{.Content}}<br/><strong class="text-gold">{{.Value}}</strong></div>
{{- else if eq .Type "compare-box"}}<div class="compare-card"><strong>{{.Label}}</strong><br/>{{.Content}}{{if .Description}}<div class="compare-card__note">{{.Description}}</div>{{end}}</div>
{{- end}}
{{- end}}

{{- define "document" -}}
<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}
</body>
</html>
{{- end}}
`
