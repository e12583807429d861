package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fetchplan/internal/compiler"
	"github.com/roach88/fetchplan/internal/engine"
	"github.com/roach88/fetchplan/internal/hydrate"
	"github.com/roach88/fetchplan/internal/querysql"
	"github.com/roach88/fetchplan/internal/schema"
	"github.com/roach88/fetchplan/internal/store"
	"github.com/roach88/fetchplan/internal/testutil"
)

// Harness runs the cases of one scenario against one database.
type Harness struct {
	store  *store.Store
	reg    *schema.Registry
	exec   *engine.Executor
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation:
//  1. Compile the CUE schema directory into a registry
//  2. Apply setup scripts
//  3. Check every mapped table and column exists
//  4. Execute each case and compare it with its expectation
//
// The returned error covers setup problems only; case mismatches are
// reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	reg, err := compiler.LoadRegistry(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for i, script := range scenario.Setup {
		if err := st.ExecScript(ctx, script); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	if err := st.CheckRegistry(ctx, reg); err != nil {
		return nil, fmt.Errorf("schema does not match database: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: st,
		reg:   reg,
		exec: engine.New(reg,
			engine.WithIDGenerator(testutil.NewFixedIDGenerator("")),
			engine.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		result.AddCase(h.runCase(ctx, c))
	}
	return result, nil
}

// runCase builds, compiles and executes one case.
func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	out := CaseResult{Name: c.Name}

	cause := h.execute(ctx, c.Request, &out)
	if cause != nil {
		out.ErrorCode = ErrorCode(cause)
	}

	out.Errors = checkExpect(c.Expect, &out, cause)
	out.Pass = len(out.Errors) == 0
	return out
}

func (h *Harness) execute(ctx context.Context, doc RequestDoc, out *CaseResult) error {
	req, mode, err := doc.Build(h.reg)
	if err != nil {
		return err
	}

	plan, err := h.exec.Compile(req, mode)
	if err != nil {
		return err
	}
	out.SQL, _, err = plan.SQL()
	if err != nil {
		return err
	}

	db := h.store.DB()
	if mode == querysql.Unique {
		row, ok, err := h.exec.Unique(ctx, db, req)
		if err != nil {
			return err
		}
		var rows []*hydrate.Row
		if ok {
			rows = append(rows, row)
		}
		out.Rows = hydrate.Rows(rows)
		return nil
	}

	res, err := h.exec.List(ctx, db, req)
	if err != nil {
		return err
	}
	out.Rows = hydrate.Rows(res.Rows)
	out.Total = res.Total
	out.Counted = res.Counted
	return nil
}
