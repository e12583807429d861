package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/testutil"
	"github.com/roach88/fetchplan/internal/where"
)

func TestValidate_TypedFiltersAreValid(t *testing.T) {
	b := testutil.NewBlog(t)

	f := where.And(
		where.Eq(b.UserName, "alice"),
		where.Through(b.UserPosts, where.Through(b.PostComments, where.IsNull(b.CommentBody))),
		where.Not(where.In(b.UserID, 1, 2)),
	)
	assert.NoError(t, filter.Validate(f.Expr(), b.Users.Def()))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	b := testutil.NewBlog(t)

	e := filter.Or{Exprs: []filter.Expr{
		filter.Compare{Field: b.PostTitle.Def(), Op: filter.OpEq, Value: ir.IRString("x")},
		filter.Through{Join: b.PostComments.Def(), Expr: nil},
		filter.IsNull{},
		filter.Custom{Name: "nothing"},
	}}

	err := filter.Validate(e, b.Users.Def())
	if assert.Error(t, err) {
		msg := err.Error()
		assert.Contains(t, msg, "field Post.title used in User scope")
		assert.Contains(t, msg, "join Post.comments used in User scope")
		assert.Contains(t, msg, "unbound field")
		assert.Contains(t, msg, `custom filter "nothing" has no resolver`)
	}
}

func TestValidate_ThroughDescends(t *testing.T) {
	b := testutil.NewBlog(t)

	// Post.title is valid inside User.posts, not outside it.
	inner := filter.Compare{Field: b.PostTitle.Def(), Op: filter.OpEq, Value: ir.IRString("x")}
	assert.NoError(t, filter.Validate(filter.Through{Join: b.UserPosts.Def(), Expr: inner}, b.Users.Def()))
	assert.Error(t, filter.Validate(inner, b.Users.Def()))
}
