package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchplan/internal/hydrate"
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/querysql"
	"github.com/roach88/fetchplan/internal/store"
)

// QueryOutput is the hydrated result of one request.
type QueryOutput struct {
	RequestID string          `json:"request_id,omitempty"`
	Rows      json.RawMessage `json:"rows"`
	Count     int             `json:"count"`
	Total     *int64          `json:"total,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <request.yaml>",
		Short: "Execute a fetch request and print the hydrated result",
		Long: `Compile a YAML fetch request, run it as one query against the
SQLite database given by --db (or database in the config file) and print
the result as nested JSON, one root entity per row.

Exit codes:
  0 - Success
  1 - Request rejected (unknown name, unresolved mapping, cardinality)
  2 - Command error (missing schema or database, backend failure)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runQuery(opts *RootOptions, requestPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.settings().Database
	if dbPath == "" {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "no database: set --db or database in the config file", nil)
	}

	lr, err := loadRequest(opts, formatter, requestPath)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	var out QueryOutput
	var rows []*hydrate.Row

	if lr.mode == querysql.Unique {
		row, ok, err := lr.exec.Unique(ctx, st.DB(), lr.req)
		if err != nil {
			return formatter.FailFetch(err)
		}
		if ok {
			rows = []*hydrate.Row{row}
		}
	} else {
		res, err := lr.exec.List(ctx, st.DB(), lr.req)
		if err != nil {
			return formatter.FailFetch(err)
		}
		rows = res.Rows
		out.RequestID = res.RequestID
		if res.Counted {
			total := res.Total
			out.Total = &total
		}
	}

	data, err := ir.MarshalCanonical(hydrate.Rows(rows))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	out.Rows = data
	out.Count = len(rows)

	return outputQuerySuccess(formatter, out, rows)
}

// outputQuerySuccess prints the rows, one canonical JSON object per line in
// text mode.
func outputQuerySuccess(formatter *OutputFormatter, out QueryOutput, rows []*hydrate.Row) error {
	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(Envelope{
			Status:    StatusOK,
			Data:      out,
			RequestID: out.RequestID,
		})
	}

	for _, r := range rows {
		line, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, string(line))
	}
	fmt.Fprintf(formatter.Writer, "(%d row(s))\n", out.Count)
	if out.Total != nil {
		fmt.Fprintf(formatter.Writer, "total: %d\n", *out.Total)
	}
	return nil
}
