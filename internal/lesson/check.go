package lesson

import "fmt"

// Violation describes a place where a document breaks a consistency rule.
// Section and Block are -1 when the violation is not tied to one.
type Violation struct {
	Rule    string `json:"rule"`
	Section int    `json:"section"`
	Block   int    `json:"block"`
	Message string `json:"message"`
}

// Consistency rules reported by Check.
const (
	RuleNoSections      = "no-sections"
	RuleDuplicateID     = "duplicate-section-id"
	RuleUnknownSection  = "unknown-section-type"
	RuleUnknownBlock    = "unknown-block-type"
	RuleBlockNotAllowed = "block-not-allowed"
	RuleRowArity        = "row-arity"
)

// Check reports every consistency violation in l without repairing anything.
// Imported documents are accepted as they are; Check tells the author what an
// editor-built document would not contain.
func Check(l *Lesson) []Violation {
	var out []Violation
	if len(l.Sections) == 0 {
		out = append(out, Violation{Rule: RuleNoSections, Section: -1, Block: -1, Message: "lesson has no sections"})
	}
	seen := make(map[string]int)
	for si, sec := range l.Sections {
		if prev, ok := seen[sec.ID]; ok {
			out = append(out, Violation{
				Rule: RuleDuplicateID, Section: si, Block: -1,
				Message: fmt.Sprintf("section id %q is also used by section %d", sec.ID, prev),
			})
		} else {
			seen[sec.ID] = si
		}
		if !KnownSectionType(sec.Type) {
			out = append(out, Violation{
				Rule: RuleUnknownSection, Section: si, Block: -1,
				Message: fmt.Sprintf("unknown section type %q", sec.Type),
			})
		}
		for bi, b := range sec.Blocks {
			switch {
			case !KnownBlockType(b.Type):
				out = append(out, Violation{
					Rule: RuleUnknownBlock, Section: si, Block: bi,
					Message: fmt.Sprintf("unknown block type %q", b.Type),
				})
			case KnownSectionType(sec.Type) && !IsAllowed(sec.Type, b.Type):
				out = append(out, Violation{
					Rule: RuleBlockNotAllowed, Section: si, Block: bi,
					Message: fmt.Sprintf("block type %q is not allowed in %q sections", b.Type, sec.Type),
				})
			}
			if b.Type != Table {
				continue
			}
			for gi, g := range b.Rows {
				for ri, row := range g.Items {
					if len(row) != len(b.Headers) {
						out = append(out, Violation{
							Rule: RuleRowArity, Section: si, Block: bi,
							Message: fmt.Sprintf("group %d row %d has %d cells for %d headers", gi, ri, len(row), len(b.Headers)),
						})
					}
				}
			}
		}
	}
	return out
}
