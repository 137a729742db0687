package preview

import (
	"fmt"
	"strings"

	"github.com/dgallion1/lessongen/internal/audio"
	"github.com/dgallion1/lessongen/internal/lesson"
)

// FormView is the editing form's view of a lesson: every editable value with
// the audio marker split off into a flag.
type FormView struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	TitleAudio  bool          `json:"titleAudio"`
	Subtitle    string        `json:"subtitle"`
	Difficulty  string        `json:"difficulty"`
	Icon        string        `json:"icon"`
	Tags        string        `json:"tags"`
	Badges      string        `json:"badges"`
	BadgesAudio bool          `json:"badgesAudio"`
	Sections    []FormSection `json:"sections"`
}

// FormSection is one numbered section of the form.
type FormSection struct {
	Index         int                  `json:"index"`
	Number        string               `json:"number"`
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Type          lesson.SectionType   `json:"type"`
	AllowedBlocks []lesson.BlockType   `json:"allowedBlocks"`
	SectionTypes  []lesson.SectionType `json:"sectionTypes"`
	Blocks        []FormBlock          `json:"blocks"`
}

// FormBlock lists the inputs shown for a block.
type FormBlock struct {
	Index        int              `json:"index"`
	Type         lesson.BlockType `json:"type"`
	Fields       []string         `json:"fields"`
	ShowLabel    bool             `json:"showLabel"`
	Label        string           `json:"label,omitempty"`
	Content      string           `json:"content,omitempty"`
	ContentAudio bool             `json:"contentAudio,omitempty"`
	Style        string           `json:"style,omitempty"`
	Value        string           `json:"value,omitempty"`
	ValueAudio   bool             `json:"valueAudio,omitempty"`
	Description  string           `json:"description,omitempty"`
	Items        []FormItem       `json:"items,omitempty"`
	Headers      string           `json:"headers,omitempty"`
	Groups       []FormGroup      `json:"groups,omitempty"`
}

// FormItem is a list entry with its marker split off.
type FormItem struct {
	Text  string `json:"text"`
	Audio bool   `json:"audio"`
}

// FormGroup is a table group as edited in the form.
type FormGroup struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Form projects l into the editing form.
func Form(l *lesson.Lesson) FormView {
	fv := FormView{
		Slug:       l.Slug,
		Title:      audio.Strip(l.Meta.Title),
		TitleAudio: audio.HasMarker(l.Meta.Title),
		Subtitle:   l.Meta.Subtitle,
		Difficulty: l.Meta.Difficulty,
		Icon:       l.Meta.Icon,
		Tags:       strings.Join(l.Meta.Tags, ", "),
		Sections:   make([]FormSection, 0, len(l.Sections)),
	}
	badges := make([]string, len(l.Header.Badges))
	for i, b := range l.Header.Badges {
		badges[i] = audio.Strip(b)
		fv.BadgesAudio = fv.BadgesAudio || audio.HasMarker(b)
	}
	fv.Badges = strings.Join(badges, ", ")

	for si, s := range l.Sections {
		fs := FormSection{
			Index:         si,
			Number:        fmt.Sprintf("%02d", si+1),
			ID:            s.ID,
			Title:         s.Title,
			Type:          s.Type,
			AllowedBlocks: lesson.Allowed(s.Type),
			SectionTypes:  lesson.SectionTypes,
			Blocks:        make([]FormBlock, 0, len(s.Blocks)),
		}
		for bi, b := range s.Blocks {
			fs.Blocks = append(fs.Blocks, formBlock(bi, b))
		}
		fv.Sections = append(fv.Sections, fs)
	}
	return fv
}

func formBlock(index int, b lesson.Block) FormBlock {
	fb := FormBlock{
		Index:     index,
		Type:      b.Type,
		Fields:    lesson.Fields(b.Type),
		ShowLabel: lesson.ShowsLabel(b.Type),
	}
	for _, f := range fb.Fields {
		switch f {
		case lesson.FieldLabel:
			fb.Label = b.Label
		case lesson.FieldContent:
			fb.Content = audio.Strip(b.Content)
			fb.ContentAudio = audio.HasMarker(b.Content)
		case lesson.FieldStyle:
			fb.Style = b.Style
		case lesson.FieldValue:
			fb.Value = audio.Strip(b.Value)
			fb.ValueAudio = audio.HasMarker(b.Value)
		case lesson.FieldDescription:
			fb.Description = b.Description
		case lesson.FieldItems:
			for _, it := range b.Items {
				fb.Items = append(fb.Items, formItem(it))
			}
		case lesson.FieldHeaders:
			fb.Headers = strings.Join(b.Headers, ", ")
		case lesson.FieldRows:
			for _, g := range b.Rows {
				fb.Groups = append(fb.Groups, FormGroup{Name: g.Group, Rows: g.Items})
			}
		}
	}
	return fb
}

func formItem(it lesson.Item) FormItem {
	switch it.Kind {
	case lesson.ItemPair:
		return FormItem{Text: it.Label + ": " + audio.Strip(it.Content), Audio: audio.HasMarker(it.Content)}
	case lesson.ItemRow:
		return FormItem{Text: it.String()}
	}
	return FormItem{Text: audio.Strip(it.Text), Audio: audio.HasMarker(it.Text)}
}
