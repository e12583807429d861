package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

// scenarioYAML is a one-case scenario over the blog schema.
func scenarioYAML(t *testing.T, name, expectName string) string {
	t.Helper()
	return `name: ` + name + `
description: single user lookup
schema: ` + filepath.ToSlash(mustAbs(t, blogSchemaDir)) + `
setup:
  - |
` + indent(blogDDL, "    ") + `
cases:
  - name: bob
    request:
      entity: User
      select: [name]
      where: {field: id, value: 2}
    expect:
      rows: [{name: ` + expectName + `}]
`
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ blog (8 case(s))")
	assert.Contains(t, out, "✓ golden_users")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir, "--filter", "golden_*")
	require.NoError(t, err)

	assert.NotContains(t, out, "✓ blog")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandJSON(t *testing.T) {
	file := filepath.Join(scenariosDir, "blog.yaml")
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), file)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, 8, resp.Data.Scenarios[0].Cases)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", scenarioYAML(t, "wrong", "zed"))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "bob: rows mismatch")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "lookup.yaml", scenarioYAML(t, "lookup", "bob"))
	golden := filepath.Join(dir, "golden", "lookup.golden")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rows":[{"name":"bob"}]`)
	assert.Contains(t, string(data), `"scenario":"lookup"`)

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"cases":[],"scenario":"lookup"}`), 0o644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandMissingPath(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("a", "scenarios", "golden", "users.golden"),
		goldenFilePath(filepath.Join("a", "scenarios", "users.yaml")))
}
