package lessonio

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// ExportYAML renders the exchange document as block-style YAML with the same
// key order as ExportJSON.
func ExportYAML(l *lesson.Lesson) ([]byte, error) {
	raw, err := ExportJSON(l)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("convert lesson to yaml: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode lesson yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode lesson yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle clears the flow and quoting styles picked up from the JSON
// source. The encoder still quotes scalars that would not read back as strings.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// ImportYAML decodes a YAML lesson document with the same rules as ImportJSON.
func ImportYAML(raw []byte) (*lesson.Lesson, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &lesson.FormatError{Reason: "payload is not YAML", Err: err}
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, &lesson.FormatError{Reason: "payload has no JSON equivalent", Err: err}
	}
	return ImportJSON(js)
}
