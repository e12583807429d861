package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/fetchplan/internal/store"
)

// BlogDDL creates the blog tables.
const BlogDDL = `
CREATE TABLE users (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL,
	email  TEXT,
	active BOOLEAN NOT NULL DEFAULT 1
);
CREATE TABLE posts (
	id        INTEGER PRIMARY KEY,
	author_id INTEGER NOT NULL REFERENCES users(id),
	title     TEXT NOT NULL,
	published BOOLEAN NOT NULL DEFAULT 0
);
CREATE TABLE comments (
	id        INTEGER PRIMARY KEY,
	post_id   INTEGER NOT NULL REFERENCES posts(id),
	author_id INTEGER NOT NULL REFERENCES users(id),
	body      TEXT NOT NULL
);
`

// BlogSeed inserts the fixture rows.
//
// alice (1) wrote posts 10, 11, 12; post 10 has two comments, post 12 one.
// bob (2) wrote post 20 (one comment) and has no email.
// carol (3) is inactive. dave (4) and erin (5) wrote nothing.
const BlogSeed = `
INSERT INTO users (id, name, email, active) VALUES
	(1, 'alice', 'alice@example.com', 1),
	(2, 'bob',   NULL,                1),
	(3, 'carol', 'carol@example.com', 0),
	(4, 'dave',  'dave@example.com',  1),
	(5, 'erin',  'erin@example.com',  1);
INSERT INTO posts (id, author_id, title, published) VALUES
	(10, 1, 'Hello',      1),
	(11, 1, 'Drafts',     0),
	(12, 1, 'Third',      1),
	(20, 2, 'Bob writes', 1);
INSERT INTO comments (id, post_id, author_id, body) VALUES
	(100, 10, 2, 'nice'),
	(101, 10, 3, '+1'),
	(102, 12, 2, 'meh'),
	(103, 20, 1, 'thanks');
`

// OpenBlogStore opens a temp-dir store loaded with BlogDDL and BlogSeed.
func OpenBlogStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "blog.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.ExecScript(ctx, BlogDDL); err != nil {
		t.Fatalf("apply DDL: %v", err)
	}
	if err := s.ExecScript(ctx, BlogSeed); err != nil {
		t.Fatalf("apply seed: %v", err)
	}
	return s
}
