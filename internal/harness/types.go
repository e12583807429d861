package harness

import "github.com/roach88/fetchplan/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds one outcome per scenario case, in order.
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// SQL is the compiled main query, empty if the request did not compile.
	SQL string `json:"sql,omitempty"`

	// Rows holds the hydrated root entities as IR.
	Rows ir.IRArray `json:"rows,omitempty"`

	// Total is set when the case asked for a count.
	Total   int64 `json:"total,omitempty"`
	Counted bool  `json:"counted,omitempty"`

	// ErrorCode classifies a failed request (see ErrorCode).
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Cases: []CaseResult{}}
}

// AddCase appends a case outcome and folds its status into the result.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if !c.Pass {
		r.Pass = false
	}
}

// Failures returns every mismatch message prefixed with its case name.
func (r *Result) Failures() []string {
	var out []string
	for _, c := range r.Cases {
		for _, e := range c.Errors {
			out = append(out, c.Name+": "+e)
		}
	}
	return out
}
