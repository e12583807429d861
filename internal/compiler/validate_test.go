package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchplan/internal/schema"
)

func validUser() *schema.EntitySpec {
	return &schema.EntitySpec{
		Name:  "User",
		Table: "users",
		Key:   "id",
		Fields: []schema.FieldSpec{
			{Name: "id", Kind: schema.KindInt},
			{Name: "name", Kind: schema.KindString},
		},
		Joins: []schema.JoinSpec{
			{Name: "posts", Target: "Post", LocalColumn: "id", TargetColumn: "author_id", Cardinality: schema.Many},
		},
	}
}

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValidEntity(t *testing.T) {
	assert.Empty(t, Validate(validUser()))
	assert.Empty(t, Validate(*validUser()))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := validUser()
	spec.Table = ""
	spec.Key = "uuid"
	spec.Fields = append(spec.Fields, schema.FieldSpec{Name: "name", Kind: schema.KindString})

	errs := Validate(spec)
	assert.ElementsMatch(t, []string{ErrEntityTableEmpty, ErrDuplicateName, ErrEntityKeyMissing}, codes(errs))
}

func TestValidateIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schema.EntitySpec)
		want   string
	}{
		{"table with space", func(s *schema.EntitySpec) { s.Table = "user accounts" }, ErrInvalidIdentifier},
		{"column with quote", func(s *schema.EntitySpec) { s.Fields[1].Column = `na"me` }, ErrInvalidIdentifier},
		{"field name used as column", func(s *schema.EntitySpec) { s.Fields[1].Name = "first-name" }, ErrInvalidIdentifier},
		{"join column injection", func(s *schema.EntitySpec) { s.Joins[0].TargetColumn = "id; DROP TABLE users" }, ErrInvalidIdentifier},
		{"bad kind", func(s *schema.EntitySpec) { s.Fields[1].Kind = "float" }, ErrInvalidFieldKind},
		{"no fields", func(s *schema.EntitySpec) { s.Fields = nil }, ErrEntityNoFields},
		{"join shadows field", func(s *schema.EntitySpec) { s.Joins[0].Name = "name" }, ErrNameCollision},
		{"join without target", func(s *schema.EntitySpec) { s.Joins[0].Target = "" }, ErrJoinTargetEmpty},
		{"join without columns", func(s *schema.EntitySpec) { s.Joins[0].LocalColumn = "" }, ErrJoinColumnsEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validUser()
			tt.mutate(spec)
			assert.Contains(t, codes(Validate(spec)), tt.want)
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Entity: "User", Field: "table", Message: "table is required", Code: ErrEntityTableEmpty}
	assert.Equal(t, "[E101] User.table: table is required", err.Error())

	err = ValidationError{Field: "type", Message: "nope", Code: ErrUnsupportedType}
	assert.Equal(t, "[E100] type: nope", err.Error())
}
