package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fetchplan/internal/ir"
)

// snapshot renders a result as an IR object for canonical JSON
// serialization. Failure messages are left out so a failing run still
// produces a comparable snapshot.
func snapshot(scenarioName string, result *Result) ir.IRObject {
	cases := make(ir.IRArray, len(result.Cases))
	for i, c := range result.Cases {
		obj := ir.IRObject{
			"name": ir.IRString(c.Name),
			"rows": c.Rows,
		}
		if c.Rows == nil {
			obj["rows"] = ir.IRArray{}
		}
		if c.SQL != "" {
			obj["sql"] = ir.IRString(c.SQL)
		}
		if c.Counted {
			obj["total"] = ir.IRInt(c.Total)
		}
		if c.ErrorCode != "" {
			obj["error"] = ir.IRString(c.ErrorCode)
		}
		cases[i] = obj
	}
	return ir.IRObject{
		"scenario": ir.IRString(scenarioName),
		"cases":    cases,
	}
}

// Snapshot renders the golden form of a result: canonical JSON of every
// case's compiled SQL, rows, total and error code.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(snapshot(scenarioName, result))
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario setup fails. Test failure (via goldie) occurs
// if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
