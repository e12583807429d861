package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryText(t *testing.T) {
	db := newBlogDB(t)
	req := writeFile(t, t.TempDir(), "active.yaml", activeUsersRequest)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text", SchemaDir: blogSchemaDir, Database: db}), req)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		`{"name":"alice"}`,
		`{"name":"bob"}`,
		"(2 row(s))",
	}, lines)
}

func TestQueryNestedJSON(t *testing.T) {
	db := newBlogDB(t)
	req := writeFile(t, t.TempDir(), "post.yaml", `entity: Post
select: [title]
where: {field: id, value: 10}
join:
  author:
    select: [name]
  comments:
    select: [body]
    order: [{field: id}]
count: true
`)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json", SchemaDir: blogSchemaDir, Database: db}), req)
	require.NoError(t, err)

	var resp struct {
		Status    string      `json:"status"`
		RequestID string      `json:"request_id"`
		Data      QueryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, resp.Data.RequestID)
	assert.Equal(t, 1, resp.Data.Count)
	require.NotNil(t, resp.Data.Total)
	assert.Equal(t, int64(1), *resp.Data.Total)
	assert.JSONEq(t,
		`[{"author":{"name":"alice"},"comments":[{"body":"nice"},{"body":"+1"}],"title":"Hello"}]`,
		string(resp.Data.Rows))
}

func TestQueryUnique(t *testing.T) {
	db := newBlogDB(t)
	dir := t.TempDir()
	opts := &RootOptions{Format: "text", SchemaDir: blogSchemaDir, Database: db}

	one := writeFile(t, dir, "one.yaml", "entity: User\nmode: unique\nselect: [name]\nwhere: {field: id, value: 2}\n")
	out, err := execute(t, NewQueryCommand(opts), one)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"bob\"}\n(1 row(s))\n", out)

	none := writeFile(t, dir, "none.yaml", "entity: User\nmode: unique\nwhere: {field: id, value: 99}\n")
	out, err = execute(t, NewQueryCommand(opts), none)
	require.NoError(t, err)
	assert.Equal(t, "(0 row(s))\n", out)
}

func TestQueryCardinalityError(t *testing.T) {
	db := newBlogDB(t)
	req := writeFile(t, t.TempDir(), "many.yaml", "entity: User\nmode: unique\nwhere: {field: active, value: true}\n")

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json", SchemaDir: blogSchemaDir, Database: db}), req)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CARDINALITY", resp.Error.Code)
}

func TestQueryRequiresDatabase(t *testing.T) {
	req := writeFile(t, t.TempDir(), "active.yaml", activeUsersRequest)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text", SchemaDir: blogSchemaDir}), req)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no database")
}

func TestQueryBackendFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.cue", `package s
entity: Tag: {table: "tags", key: "id", field: {id: int, label: string}}`)
	req := writeFile(t, dir, "tags.yaml", "entity: Tag\nselect: [label]\n")
	db := newBlogDB(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text", SchemaDir: dir, Database: db}), req)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeDatabase)
}
