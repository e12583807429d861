package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator(t *testing.T) {
	g := NewFixedIDGenerator("req-1")
	assert.Equal(t, "req-1", g.Generate())
	assert.Equal(t, "req-1", g.Generate())

	assert.Equal(t, "test-request", NewFixedIDGenerator("").Generate())
}

func TestNewBlog(t *testing.T) {
	b := NewBlog(t)

	assert.Equal(t, "User.name", b.UserName.String())
	assert.Same(t, b.Posts.Def(), b.UserPosts.Def().Target)
	assert.Same(t, b.Users.Def(), b.PostAuthor.Def().Target)
}
