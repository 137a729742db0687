package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// opRequest is the body of POST /api/sessions/{id}/ops. Each operation reads
// the index fields it needs and ignores the rest.
type opRequest struct {
	Op        string          `json:"op"`
	Section   int             `json:"section"`
	Block     int             `json:"block"`
	Group     int             `json:"group"`
	Row       int             `json:"row"`
	Column    int             `json:"column"`
	Item      int             `json:"item"`
	From      int             `json:"from"`
	To        int             `json:"to"`
	ToSection int             `json:"to_section"`
	Field     string          `json:"field"`
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	Audio     bool            `json:"audio"`
	Confirm   *bool           `json:"confirm"`
}

func (q opRequest) stringValue() (string, error) {
	if len(q.Value) == 0 || string(q.Value) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(q.Value, &s); err != nil {
		return "", &lesson.ValidationError{Op: q.Op, Reason: "value must be a string"}
	}
	return s, nil
}

// blockValue decodes a value for UpdateBlock: a string or a list of strings.
func (q opRequest) blockValue() (any, error) {
	if len(q.Value) == 0 || string(q.Value) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(q.Value, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(q.Value, &list); err == nil {
		return list, nil
	}
	return nil, &lesson.ValidationError{Op: q.Op, Reason: "value must be a string or a list of strings"}
}

// confirmFunc turns the optional confirm flag into the removal callback.
// An absent flag removes without asking.
func (q opRequest) confirmFunc() func(lesson.Section) bool {
	if q.Confirm == nil {
		return nil
	}
	answer := *q.Confirm
	return func(lesson.Section) bool { return answer }
}

type opFunc func(e *lesson.Editor, q opRequest) (index *int, err error)

func created(i int, err error) (*int, error) {
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func done(err error) (*int, error) {
	return nil, err
}

func withString(fn func(e *lesson.Editor, q opRequest, v string) error) opFunc {
	return func(e *lesson.Editor, q opRequest) (*int, error) {
		v, err := q.stringValue()
		if err != nil {
			return nil, err
		}
		return done(fn(e, q, v))
	}
}

var ops = map[string]opFunc{
	"update_meta": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateMeta(q.Field, v, q.Audio)
	}),

	"add_section": func(e *lesson.Editor, q opRequest) (*int, error) {
		return created(e.AddSection(), nil)
	},
	"remove_section": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.RemoveSection(q.Section, q.confirmFunc()))
	},
	"update_section": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateSection(q.Section, q.Field, v)
	}),
	"move_section": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.MoveSection(q.From, q.To))
	},

	"add_block": func(e *lesson.Editor, q opRequest) (*int, error) {
		return created(e.AddBlock(q.Section, lesson.BlockType(q.Type)))
	},
	"remove_block": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.RemoveBlock(q.Section, q.Block))
	},
	"update_block": func(e *lesson.Editor, q opRequest) (*int, error) {
		v, err := q.blockValue()
		if err != nil {
			return nil, err
		}
		return done(e.UpdateBlock(q.Section, q.Block, q.Field, v))
	},
	"set_block_audio": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.SetBlockAudio(q.Section, q.Block, q.Field, q.Audio))
	},
	"move_block": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.MoveBlock(q.Section, q.From, q.To))
	},
	"move_block_to": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.MoveBlockTo(q.Section, q.From, q.ToSection, q.To))
	},

	"add_table_group": func(e *lesson.Editor, q opRequest) (*int, error) {
		return created(e.AddTableGroup(q.Section, q.Block))
	},
	"remove_table_group": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.RemoveTableGroup(q.Section, q.Block, q.Group))
	},
	"update_table_group": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateTableGroup(q.Section, q.Block, q.Group, v)
	}),
	"add_table_row": func(e *lesson.Editor, q opRequest) (*int, error) {
		return created(e.AddTableRow(q.Section, q.Block, q.Group))
	},
	"remove_table_row": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.RemoveTableRow(q.Section, q.Block, q.Group, q.Row))
	},
	"update_table_cell": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateTableCell(q.Section, q.Block, q.Group, q.Row, q.Column, v)
	}),
	"update_table_headers": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateTableHeaders(q.Section, q.Block, v)
	}),

	"add_list_item": func(e *lesson.Editor, q opRequest) (*int, error) {
		return created(e.AddListItem(q.Section, q.Block))
	},
	"remove_list_item": func(e *lesson.Editor, q opRequest) (*int, error) {
		return done(e.RemoveListItem(q.Section, q.Block, q.Item))
	},
	"update_list_item": withString(func(e *lesson.Editor, q opRequest, v string) error {
		return e.UpdateListItem(q.Section, q.Block, q.Item, v, q.Audio)
	}),
}

// opNames lists the supported operations, sorted.
func opNames() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		jsonError(w, kindBadRequest, "failed to read body", http.StatusBadRequest)
		return
	}
	var q opRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		jsonError(w, kindBadRequest, "invalid operation: "+err.Error(), http.StatusBadRequest)
		return
	}
	fn, found := ops[q.Op]
	if !found {
		jsonError(w, kindBadRequest, fmt.Sprintf("unknown op %q, expected one of %v", q.Op, opNames()), http.StatusBadRequest)
		return
	}

	var index *int
	err = sess.Do(func(e *lesson.Editor) error {
		var err error
		index, err = fn(e, q)
		return err
	})
	if err != nil {
		s.log.Debug("operation rejected", "session_id", sess.ID, "op", q.Op, "error", err)
		writeError(w, err)
		return
	}
	s.writeLesson(w, http.StatusOK, sess, index, nil)
}
