package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fetchplan/internal/engine"
	"github.com/roach88/fetchplan/internal/ir"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"document", docErr("entity", "unknown entity %q", "Ghost"), ErrorDocument},
		{"wrapped document", fmt.Errorf("build: %w", docErr("", "x")), ErrorDocument},
		{"cardinality", engine.NewCardinalityError("req-1", "User", 2), ErrorCardinality},
		{"configuration", &engine.QueryError{Code: engine.ErrCodeConfiguration}, ErrorConfiguration},
		{"backend", errors.New("no such table: users"), ErrorBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestCheckExpect(t *testing.T) {
	alice := ir.IRArray{ir.IRObject{"name": ir.IRString("alice")}}
	two := int64(2)

	tests := []struct {
		name    string
		expect  ExpectClause
		out     CaseResult
		cause   error
		wantErr []string
	}{
		{
			name:   "rows match",
			expect: ExpectClause{Rows: []any{map[string]any{"name": "alice"}}},
			out:    CaseResult{Rows: alice},
		},
		{
			name:    "rows differ",
			expect:  ExpectClause{Rows: []any{}},
			out:     CaseResult{Rows: alice},
			wantErr: []string{"rows mismatch"},
		},
		{
			name:   "no expectation",
			expect: ExpectClause{},
			out:    CaseResult{Rows: alice},
		},
		{
			name:   "total matches",
			expect: ExpectClause{Total: &two},
			out:    CaseResult{Counted: true, Total: 2},
		},
		{
			name:    "total differs",
			expect:  ExpectClause{Total: &two},
			out:     CaseResult{Counted: true, Total: 3},
			wantErr: []string{"total: expected 2, got 3"},
		},
		{
			name:    "total not counted",
			expect:  ExpectClause{Total: &two},
			out:     CaseResult{},
			wantErr: []string{"expected a total but none was counted"},
		},
		{
			name:   "expected error",
			expect: ExpectClause{Error: ErrorCardinality},
			out:    CaseResult{ErrorCode: ErrorCardinality},
			cause:  errors.New("several"),
		},
		{
			name:    "wrong error",
			expect:  ExpectClause{Error: ErrorCardinality},
			out:     CaseResult{ErrorCode: ErrorDocument},
			cause:   errors.New("bad doc"),
			wantErr: []string{"expected error CARDINALITY, got DOCUMENT: bad doc"},
		},
		{
			name:    "missing error",
			expect:  ExpectClause{Error: ErrorDocument},
			out:     CaseResult{},
			wantErr: []string{"expected error DOCUMENT, got success"},
		},
		{
			name:    "unexpected error",
			expect:  ExpectClause{Rows: []any{}},
			out:     CaseResult{ErrorCode: ErrorBackend},
			cause:   errors.New("disk I/O error"),
			wantErr: []string{"unexpected BACKEND error: disk I/O error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.out
			errs := checkExpect(tt.expect, &out, tt.cause)
			if len(tt.wantErr) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Len(t, errs, len(tt.wantErr))
			for i, want := range tt.wantErr {
				if i < len(errs) {
					assert.Contains(t, errs[i], want)
				}
			}
		})
	}
}
