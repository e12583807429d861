package hydrate

import (
	"github.com/roach88/fetchplan/internal/schema"
)

// Slot places one selected field in the result columns.
type Slot struct {
	Field *schema.FieldDef
	Index int
}

// Shape is the column bookkeeping of one fetch node.
type Shape struct {
	Entity *schema.Entity

	// Join is the relation this node was reached through; nil at the root.
	Join *schema.JoinDef

	// KeyIndex is the column carrying the entity's identity key.
	KeyIndex int

	Fields   []Slot
	Children []*Shape
}

// Width returns the highest column index referenced in the tree plus one.
func (s *Shape) Width() int {
	w := s.KeyIndex + 1
	for _, f := range s.Fields {
		if f.Index+1 > w {
			w = f.Index + 1
		}
	}
	for _, c := range s.Children {
		if cw := c.Width(); cw > w {
			w = cw
		}
	}
	return w
}
