package hydrate

import (
	"fmt"

	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// Hydrate groups the rows of t into root Rows following shape.
func Hydrate(t *Table, shape *Shape) ([]*Row, error) {
	if shape == nil {
		return nil, fmt.Errorf("hydrate: nil shape")
	}
	if w := shape.Width(); len(t.Columns) < w {
		return nil, fmt.Errorf("hydrate: table has %d columns, shape needs %d", len(t.Columns), w)
	}

	var roots group
	for i, cells := range t.Rows {
		key := cells[shape.KeyIndex]
		if ir.IsNull(key) {
			return nil, fmt.Errorf("hydrate: row %d: root key %s is NULL", i, shape.Entity.Key())
		}
		root := roots.get(key, shape, cells)
		root.absorb(cells)
	}
	return roots.rows, nil
}

// group collects Rows by identity key in first-seen order.
type group struct {
	byKey map[ir.IRValue]*Row
	rows  []*Row
}

func (g *group) get(key ir.IRValue, shape *Shape, cells []ir.IRValue) *Row {
	if r, ok := g.byKey[key]; ok {
		return r
	}
	if g.byKey == nil {
		g.byKey = make(map[ir.IRValue]*Row)
	}
	r := newRow(shape, key, cells)
	g.byKey[key] = r
	g.rows = append(g.rows, r)
	return r
}

// join holds the hydrated children of one join at one parent.
type join struct {
	shape *Shape
	one   *Row
	many  group
}

func newRow(shape *Shape, key ir.IRValue, cells []ir.IRValue) *Row {
	r := &Row{
		shape:  shape,
		key:    key,
		values: make(map[*schema.FieldDef]ir.IRValue, len(shape.Fields)),
		joins:  make(map[*schema.JoinDef]*join, len(shape.Children)),
	}
	for _, slot := range shape.Fields {
		r.values[slot.Field] = coerce(slot.Field, cells[slot.Index])
	}
	for _, c := range shape.Children {
		r.joins[c.Join] = &join{shape: c}
	}
	return r
}

// absorb folds one flat row into r's join children.
func (r *Row) absorb(cells []ir.IRValue) {
	for _, c := range r.shape.Children {
		key := cells[c.KeyIndex]
		if ir.IsNull(key) {
			continue
		}
		j := r.joins[c.Join]

		var child *Row
		if c.Join.Cardinality == schema.Many {
			child = j.many.get(key, c, cells)
		} else {
			if j.one == nil {
				j.one = newRow(c, key, cells)
			}
			child = j.one
		}
		child.absorb(cells)
	}
}

// coerce maps driver values onto the field's declared kind. SQLite stores
// booleans as integers.
func coerce(f *schema.FieldDef, v ir.IRValue) ir.IRValue {
	if f.Kind == schema.KindBool {
		if n, ok := v.(ir.IRInt); ok {
			return ir.IRBool(n != 0)
		}
	}
	return v
}
