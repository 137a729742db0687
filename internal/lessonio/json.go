// Package lessonio converts lessons to and from the JSON exchange format read
// by the site generator, and its YAML rendition.
package lessonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// ImportJSON decodes a lesson document. The payload must be a JSON object with
// non-null meta and sections keys; every other field falls back to a default
// when missing or of the wrong type. Sections and blocks are not checked
// against the block catalog, use lesson.Check for that.
func ImportJSON(raw []byte) (*lesson.Lesson, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &lesson.FormatError{Reason: "payload is not a JSON object", Err: err}
	}
	if isNull(top["meta"]) {
		return nil, &lesson.FormatError{Reason: `missing "meta"`}
	}
	if isNull(top["sections"]) {
		return nil, &lesson.FormatError{Reason: `missing "sections"`}
	}

	l := lesson.New()
	l.Slug = str(top["slug"])

	meta := object(top["meta"])
	l.Meta.Title = str(meta["title"])
	l.Meta.Subtitle = str(meta["subtitle"])
	l.Meta.Icon = str(meta["icon"])
	if d := str(meta["difficulty"]); d != "" {
		l.Meta.Difficulty = d
	}
	l.Meta.Tags = strs(meta["tags"])
	l.Header.Badges = strs(object(top["header"])["badges"])

	for _, rs := range array(top["sections"]) {
		sec, ok := decodeSection(rs)
		if ok {
			l.Sections = append(l.Sections, sec)
		}
	}
	return l, nil
}

func decodeSection(raw json.RawMessage) (lesson.Section, bool) {
	fields := object(raw)
	if fields == nil {
		return lesson.Section{}, false
	}
	sec := lesson.Section{
		ID:    str(fields["id"]),
		Title: str(fields["title"]),
		Type:  lesson.SectionType(str(fields["type"])),
	}
	for _, rb := range array(fields["blocks"]) {
		if b, ok := decodeBlock(rb); ok {
			sec.Blocks = append(sec.Blocks, b)
		}
	}
	return sec, true
}

func decodeBlock(raw json.RawMessage) (lesson.Block, bool) {
	fields := object(raw)
	if fields == nil {
		return lesson.Block{}, false
	}
	b := lesson.Block{
		Type:        lesson.BlockType(str(fields["type"])),
		Label:       str(fields[lesson.FieldLabel]),
		Content:     str(fields[lesson.FieldContent]),
		Style:       str(fields[lesson.FieldStyle]),
		Value:       str(fields[lesson.FieldValue]),
		Description: str(fields[lesson.FieldDescription]),
		Headers:     strs(fields[lesson.FieldHeaders]),
	}
	for _, ri := range array(fields[lesson.FieldItems]) {
		if it, ok := decodeItem(ri); ok {
			b.Items = append(b.Items, it)
		}
	}
	b.Rows = decodeRows(fields[lesson.FieldRows])
	return b, true
}

func decodeItem(raw json.RawMessage) (lesson.Item, bool) {
	if isNull(raw) {
		return lesson.Item{}, false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return lesson.TextItem(s), true
	}
	if fields := object(raw); fields != nil {
		return lesson.Item{
			Kind:    lesson.ItemPair,
			Label:   str(fields["label"]),
			Content: str(fields["content"]),
		}, true
	}
	if cells, ok := row(raw); ok {
		return lesson.Item{Kind: lesson.ItemRow, Cells: cells}, true
	}
	return lesson.Item{}, false
}

// decodeRows reads table groups. Older documents store rows as a flat list
// of cell arrays; those are gathered into a single unnamed group.
func decodeRows(raw json.RawMessage) []lesson.TableGroup {
	var groups []lesson.TableGroup
	var legacy [][]string
	for _, rg := range array(raw) {
		if cells, ok := row(rg); ok {
			legacy = append(legacy, cells)
			continue
		}
		fields := object(rg)
		if fields == nil {
			continue
		}
		g := lesson.TableGroup{Group: str(fields["group"])}
		for _, rr := range array(fields["items"]) {
			if cells, ok := row(rr); ok {
				g.Items = append(g.Items, cells)
			}
		}
		groups = append(groups, g)
	}
	if legacy != nil {
		groups = append(groups, lesson.TableGroup{Items: legacy})
	}
	return groups
}

func isNull(raw json.RawMessage) bool {
	return raw == nil || string(bytes.TrimSpace(raw)) == "null"
}

func str(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if raw == nil || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func array(raw json.RawMessage) []json.RawMessage {
	var a []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &a) != nil {
		return nil
	}
	return a
}

// strs returns the string elements of a JSON array; other elements are dropped.
func strs(raw json.RawMessage) []string {
	var out []string
	for _, e := range array(raw) {
		var s string
		if !isNull(e) && json.Unmarshal(e, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// row decodes an array of cells. Non-string cells become empty strings so the
// row keeps its width.
func row(raw json.RawMessage) ([]string, bool) {
	elems := array(raw)
	if elems == nil && !isArray(raw) {
		return nil, false
	}
	cells := make([]string, 0, len(elems))
	for _, e := range elems {
		cells = append(cells, str(e))
	}
	return cells, true
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

// ExportJSON encodes l in the exchange format: keys in a stable order,
// four-space indentation and no HTML escaping.
func ExportJSON(l *lesson.Lesson) ([]byte, error) {
	doc := wireLesson{
		Slug: l.Slug,
		Meta: wireMeta{
			Title:      l.Meta.Title,
			Subtitle:   l.Meta.Subtitle,
			Difficulty: l.Meta.Difficulty,
			Tags:       nonNil(l.Meta.Tags),
			Icon:       l.Meta.Icon,
		},
		Header:   wireHeader{Badges: nonNil(l.Header.Badges)},
		Sections: make([]wireSection, 0, len(l.Sections)),
	}
	for _, s := range l.Sections {
		ws := wireSection{ID: s.ID, Title: s.Title, Type: string(s.Type), Blocks: make([]orderedObject, 0, len(s.Blocks))}
		for _, b := range s.Blocks {
			ws.Blocks = append(ws.Blocks, blockObject(b))
		}
		doc.Sections = append(doc.Sections, ws)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode lesson: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type wireLesson struct {
	Slug     string        `json:"slug"`
	Meta     wireMeta      `json:"meta"`
	Header   wireHeader    `json:"header"`
	Sections []wireSection `json:"sections"`
}

type wireMeta struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Icon       string   `json:"icon"`
}

type wireHeader struct {
	Badges []string `json:"badges"`
}

type wireSection struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Type   string          `json:"type"`
	Blocks []orderedObject `json:"blocks"`
}

type wireGroup struct {
	Group string     `json:"group"`
	Items [][]string `json:"items"`
}

type wirePair struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

var fieldOrder = []string{
	lesson.FieldLabel,
	lesson.FieldContent,
	lesson.FieldStyle,
	lesson.FieldValue,
	lesson.FieldDescription,
	lesson.FieldItems,
	lesson.FieldHeaders,
	lesson.FieldRows,
}

// blockObject lays out a block as type, then the fields of its variant, then
// any other field that carries data.
func blockObject(b lesson.Block) orderedObject {
	obj := orderedObject{{"type", string(b.Type)}}
	variant := lesson.Fields(b.Type)
	for _, f := range variant {
		obj = append(obj, member{f, fieldValue(b, f)})
	}
	for _, f := range fieldOrder {
		if lesson.HasField(b.Type, f) || fieldEmpty(b, f) {
			continue
		}
		obj = append(obj, member{f, fieldValue(b, f)})
	}
	return obj
}

func fieldValue(b lesson.Block, field string) any {
	switch field {
	case lesson.FieldLabel:
		return b.Label
	case lesson.FieldContent:
		return b.Content
	case lesson.FieldStyle:
		return b.Style
	case lesson.FieldValue:
		return b.Value
	case lesson.FieldDescription:
		return b.Description
	case lesson.FieldItems:
		items := make([]any, 0, len(b.Items))
		for _, it := range b.Items {
			switch it.Kind {
			case lesson.ItemPair:
				items = append(items, wirePair{Label: it.Label, Content: it.Content})
			case lesson.ItemRow:
				items = append(items, nonNil(it.Cells))
			default:
				items = append(items, it.Text)
			}
		}
		return items
	case lesson.FieldHeaders:
		return nonNil(b.Headers)
	case lesson.FieldRows:
		groups := make([]wireGroup, 0, len(b.Rows))
		for _, g := range b.Rows {
			wg := wireGroup{Group: g.Group, Items: make([][]string, 0, len(g.Items))}
			for _, r := range g.Items {
				wg.Items = append(wg.Items, nonNil(r))
			}
			groups = append(groups, wg)
		}
		return groups
	}
	return nil
}

func fieldEmpty(b lesson.Block, field string) bool {
	switch field {
	case lesson.FieldItems:
		return len(b.Items) == 0
	case lesson.FieldHeaders:
		return len(b.Headers) == 0
	case lesson.FieldRows:
		return len(b.Rows) == 0
	}
	return fieldValue(b, field) == ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type member struct {
	key   string
	value any
}

// orderedObject is a JSON object that keeps its keys in insertion order.
type orderedObject []member

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(m.key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(m.value); err != nil {
			return nil, fmt.Errorf("field %s: %w", m.key, err)
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FileName returns the download name of an exported lesson.
func FileName(l *lesson.Lesson, now time.Time) string {
	slug := strings.TrimSpace(l.Slug)
	if slug == "" {
		slug = "lesson"
	}
	return fmt.Sprintf("%d_%s.json", now.Unix(), slug)
}
