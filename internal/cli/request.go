package cli

import (
	"github.com/roach88/fetchplan/internal/engine"
	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/harness"
	"github.com/roach88/fetchplan/internal/querysql"
)

// loadedRequest is a request document resolved against the schema.
type loadedRequest struct {
	exec *engine.Executor
	req  *fetch.Request
	mode querysql.Mode
}

// loadRequest loads the schema and the request document at path and builds
// the request. Failures are reported through formatter.
func loadRequest(opts *RootOptions, formatter *OutputFormatter, path string) (*loadedRequest, error) {
	cfg := opts.settings()

	loadResult, loadErrors := LoadSchema(cfg.SchemaDir)
	if len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return nil, formatter.Fail(ExitCommandError, code, message, nil)
	}
	formatter.VerboseLog("Loaded %d entity(ies) from %s", len(loadResult.Entities), cfg.SchemaDir)

	doc, err := harness.LoadRequest(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeRequest, err.Error(), nil)
	}
	if cfg.DefaultLimit > 0 && doc.Page == nil && doc.Mode != querysql.Unique.String() {
		formatter.VerboseLog("Applying default limit %d", cfg.DefaultLimit)
		doc.Page = &harness.PageDoc{Limit: cfg.DefaultLimit}
	}

	req, mode, err := doc.Build(loadResult.Registry)
	if err != nil {
		return nil, formatter.Fail(ExitFailure, ErrCodeRequest, err.Error(), nil)
	}

	return &loadedRequest{
		exec: engine.New(loadResult.Registry, engine.WithLogger(opts.logger())),
		req:  req,
		mode: mode,
	}, nil
}
