package hydrate

import (
	"fmt"

	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// Row is one hydrated entity scoped to one fetch node. It is read-only.
type Row struct {
	shape  *Shape
	key    ir.IRValue
	values map[*schema.FieldDef]ir.IRValue
	joins  map[*schema.JoinDef]*join
}

// Entity returns the entity this row holds.
func (r *Row) Entity() *schema.Entity { return r.shape.Entity }

// Key returns the identity key value.
func (r *Row) Key() ir.IRValue { return r.key }

// Get returns the value of a selected field. The key field is always
// available. ok is false for fields the node did not select.
func (r *Row) Get(f *schema.FieldDef) (ir.IRValue, bool) {
	if v, ok := r.values[f]; ok {
		return v, true
	}
	if f != nil && f == r.shape.Entity.Key() {
		return r.key, true
	}
	return nil, false
}

// Join returns the child of a singular join, or nil when the related entity
// is absent.
func (r *Row) Join(j *schema.JoinDef) (*Row, error) {
	jr, err := r.lookup(j, schema.One)
	if err != nil {
		return nil, err
	}
	return jr.one, nil
}

// JoinSet returns the children of a collection join in first-seen order.
func (r *Row) JoinSet(j *schema.JoinDef) ([]*Row, error) {
	jr, err := r.lookup(j, schema.Many)
	if err != nil {
		return nil, err
	}
	return jr.many.rows, nil
}

func (r *Row) lookup(j *schema.JoinDef, want schema.Cardinality) (*join, error) {
	jr, ok := r.joins[j]
	if !ok {
		return nil, fmt.Errorf("hydrate: join %s was not requested on %s", j, r.shape.Entity)
	}
	if j.Cardinality != want {
		return nil, fmt.Errorf("hydrate: join %s is %s-valued", j, j.Cardinality)
	}
	return jr, nil
}

// IR renders the row as an object of its selected fields and joins.
// Singular joins render as an object or null, collections as arrays.
func (r *Row) IR() ir.IRObject {
	obj := make(ir.IRObject, len(r.shape.Fields)+len(r.shape.Children))
	for _, slot := range r.shape.Fields {
		obj[slot.Field.Name] = r.values[slot.Field]
	}
	for _, c := range r.shape.Children {
		jr := r.joins[c.Join]
		if c.Join.Cardinality == schema.Many {
			arr := make(ir.IRArray, len(jr.many.rows))
			for i, child := range jr.many.rows {
				arr[i] = child.IR()
			}
			obj[c.Join.Name] = arr
			continue
		}
		if jr.one == nil {
			obj[c.Join.Name] = ir.IRNull{}
		} else {
			obj[c.Join.Name] = jr.one.IR()
		}
	}
	return obj
}

// MarshalJSON renders the row as canonical JSON.
func (r *Row) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(r.IR())
}

// Rows renders a list of rows as an array.
func Rows(rows []*Row) ir.IRArray {
	arr := make(ir.IRArray, len(rows))
	for i, r := range rows {
		arr[i] = r.IR()
	}
	return arr
}
