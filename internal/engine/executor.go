package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/hydrate"
	"github.com/roach88/fetchplan/internal/querysql"
	"github.com/roach88/fetchplan/internal/schema"
)

// Querier is a backend session: *sql.DB, *sql.Conn or *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// txBeginner is a session that can open a transaction.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor compiles, runs and hydrates fetch requests against one registry.
//
// Thread-safety: Executor is immutable after New and safe for concurrent use
// as long as each call gets its own request tree.
type Executor struct {
	reg    *schema.Registry
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithIDGenerator sets the request ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Executor) {
		e.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// New creates an Executor for reg.
func New(reg *schema.Registry, opts ...Option) *Executor {
	e := &Executor{
		reg:    reg,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry requests are resolved against.
func (e *Executor) Registry() *schema.Registry { return e.reg }

// Result is the outcome of one executed plan.
type Result struct {
	// RequestID correlates the result with log lines.
	RequestID string

	// Table holds the raw rows of the main query.
	Table *hydrate.Table

	// Rows holds one hydrated root entity per distinct root key.
	Rows []*hydrate.Row

	// Total is the number of matching root entities ignoring pagination.
	// Valid only when Counted is true.
	Total   int64
	Counted bool
}

// Compile compiles req, classifying unresolved identifiers as
// configuration errors.
func (e *Executor) Compile(req *fetch.Request, mode querysql.Mode) (*querysql.Plan, error) {
	return e.compile(e.ids.Generate(), req, mode)
}

func (e *Executor) compile(requestID string, req *fetch.Request, mode querysql.Mode) (*querysql.Plan, error) {
	plan, err := querysql.Compile(e.reg, req, mode)
	if err != nil {
		var cfg *querysql.ConfigError
		if errors.As(err, &cfg) {
			qe := NewConfigurationError(requestID, cfg)
			e.logger.Warn("fetch request rejected",
				"request_id", requestID,
				"code", qe.Code,
				"identifier", qe.Identifier,
				"error", cfg.Message,
			)
			return nil, qe
		}
		return nil, fmt.Errorf("compile fetch request: %w", err)
	}
	return plan, nil
}

// List fetches every root entity matching req, honoring pagination and the
// total-count flag.
func (e *Executor) List(ctx context.Context, q Querier, req *fetch.Request) (*Result, error) {
	requestID := e.ids.Generate()
	plan, err := e.compile(requestID, req, querysql.List)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, q, requestID, plan)
}

// Unique fetches at most one root entity. ok is false when nothing matched;
// more than one match is a cardinality error.
func (e *Executor) Unique(ctx context.Context, q Querier, req *fetch.Request) (row *hydrate.Row, ok bool, err error) {
	requestID := e.ids.Generate()
	plan, err := e.compile(requestID, req, querysql.Unique)
	if err != nil {
		return nil, false, err
	}
	res, err := e.execute(ctx, q, requestID, plan)
	if err != nil {
		return nil, false, err
	}

	switch len(res.Rows) {
	case 0:
		return nil, false, nil
	case 1:
		return res.Rows[0], true, nil
	default:
		qe := NewCardinalityError(requestID, plan.Shape.Entity.Name, len(res.Rows))
		e.logger.Warn("unique fetch matched several entities",
			"request_id", requestID,
			"entity", plan.Shape.Entity.Name,
			"entities", len(res.Rows),
		)
		return nil, false, qe
	}
}

// Execute runs a compiled plan on q and hydrates the rows.
func (e *Executor) Execute(ctx context.Context, q Querier, plan *querysql.Plan) (*Result, error) {
	return e.execute(ctx, q, e.ids.Generate(), plan)
}

func (e *Executor) execute(ctx context.Context, q Querier, requestID string, plan *querysql.Plan) (*Result, error) {
	query, args, err := plan.SQL()
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}
	countQuery, countArgs, counted, err := plan.CountSQL()
	if err != nil {
		return nil, fmt.Errorf("render count query: %w", err)
	}

	e.logger.Debug("executing fetch",
		"request_id", requestID,
		"entity", plan.Shape.Entity.Name,
		"mode", plan.Mode.String(),
		"joins", plan.Joins,
		"sql", query,
		"args", len(args),
		"counted", counted,
	)

	res := &Result{RequestID: requestID, Counted: counted}
	run := func(q Querier) error {
		if counted {
			total, err := queryCount(ctx, q, countQuery, countArgs)
			if err != nil {
				return err
			}
			res.Total = total
		}
		table, err := queryTable(ctx, q, query, args)
		if err != nil {
			return err
		}
		res.Table = table
		return nil
	}

	if counted {
		err = inTx(ctx, q, run)
	} else {
		err = run(q)
	}
	if err != nil {
		e.logger.Debug("fetch failed", "request_id", requestID, "error", err)
		return nil, err
	}

	rows, err := hydrate.Hydrate(res.Table, plan.Shape)
	if err != nil {
		return nil, err
	}
	res.Rows = rows

	e.logger.Debug("fetch complete",
		"request_id", requestID,
		"rows", len(res.Table.Rows),
		"entities", len(rows),
		"total", res.Total,
	)
	return res, nil
}

// inTx runs fn in a transaction when q can open one, so the count and the
// page observe the same snapshot. A q that cannot (e.g. an open *sql.Tx)
// is used as is.
func inTx(ctx context.Context, q Querier, fn func(Querier) error) error {
	b, ok := q.(txBeginner)
	if !ok {
		return fn(q)
	}
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fetch transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		// The fetch error is the one worth reporting; a failed rollback
		// only means the transaction is already gone.
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fetch transaction: %w", err)
	}
	return nil
}

func queryTable(ctx context.Context, q Querier, query string, args []any) (*hydrate.Table, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch query: %w", err)
	}
	defer rows.Close()
	return hydrate.ReadTable(rows)
}

func queryCount(ctx context.Context, q Querier, query string, args []any) (int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	defer rows.Close()

	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return total, nil
}
