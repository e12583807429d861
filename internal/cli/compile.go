package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CompileOutput is the compiled form of one request.
type CompileOutput struct {
	Mode      string `json:"mode"`
	Joins     int    `json:"joins"`
	SQL       string `json:"sql"`
	Args      []any  `json:"args"`
	CountSQL  string `json:"count_sql,omitempty"`
	CountArgs []any  `json:"count_args,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <request.yaml>",
		Short: "Compile a fetch request to SQL",
		Long: `Compile a YAML fetch request against the schema and print the
single SQL query it becomes, with its arguments. When the request asks
for a total count, the count query is printed too.

Nothing is executed; no database is needed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCompile(opts *RootOptions, requestPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	lr, err := loadRequest(opts, formatter, requestPath)
	if err != nil {
		return err
	}

	plan, err := lr.exec.Compile(lr.req, lr.mode)
	if err != nil {
		return formatter.FailFetch(err)
	}

	out := CompileOutput{Mode: plan.Mode.String(), Joins: plan.Joins}
	out.SQL, out.Args, err = plan.SQL()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	countSQL, countArgs, ok, err := plan.CountSQL()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if ok {
		out.CountSQL, out.CountArgs = countSQL, countArgs
	}

	return outputCompileSuccess(formatter, out)
}

// outputCompileSuccess outputs the compiled queries.
func outputCompileSuccess(formatter *OutputFormatter, out CompileOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "-- %s query, %d join(s)\n", out.Mode, out.Joins)
	fmt.Fprintln(formatter.Writer, out.SQL)
	fmt.Fprintf(formatter.Writer, "-- args: %v\n", out.Args)

	if out.CountSQL != "" {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "-- count query")
		fmt.Fprintln(formatter.Writer, out.CountSQL)
		fmt.Fprintf(formatter.Writer, "-- args: %v\n", out.CountArgs)
	}

	return nil
}
