package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchplan/internal/schema"
	"github.com/roach88/fetchplan/internal/store"
	"github.com/roach88/fetchplan/internal/testutil"
)

func TestCheckRegistry_BlogMatches(t *testing.T) {
	s := testutil.OpenBlogStore(t)
	b := testutil.NewBlog(t)

	assert.NoError(t, s.CheckRegistry(context.Background(), b.Reg))
}

func TestCheckRegistry_ReportsEveryMissingMapping(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "partial.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.ExecScript(ctx, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, active BOOLEAN);
		CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title TEXT, published BOOLEAN);
	`))

	b := testutil.NewBlog(t)
	err = s.CheckRegistry(ctx, b.Reg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "column users.email does not exist")
	assert.Contains(t, msg, `table "comments" does not exist`)

	var defErr *schema.DefinitionError
	assert.True(t, errors.As(err, &defErr))
}
