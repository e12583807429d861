package fetch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/schema"
	"github.com/roach88/fetchplan/internal/testutil"
	"github.com/roach88/fetchplan/internal/where"
)

func TestSelect_Deduplicates(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	req.Select(b.UserName, b.UserEmail)
	req.Select(b.UserName)

	assert.Equal(t, []*schema.FieldDef{b.UserName.Def(), b.UserEmail.Def()}, req.Root().Node().Fields())
}

func TestJoin_ReturnsSameChild(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	first := fetch.Join(req.Root(), b.UserPosts, func(p fetch.NodeOf[testutil.Post]) {
		p.Select(b.PostTitle)
	})
	second := fetch.Join(req.Root(), b.UserPosts, func(p fetch.NodeOf[testutil.Post]) {
		p.Select(b.PostPublished, b.PostTitle)
	})

	assert.Same(t, first.Node(), second.Node())
	assert.Len(t, req.Root().Node().Joins(), 1)
	assert.Equal(t,
		[]*schema.FieldDef{b.PostTitle.Def(), b.PostPublished.Def()},
		first.Node().Fields(),
		"configurators of both calls apply to one child")
}

func TestJoin_PreservesOrder(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	fetch.Join(req.Root(), b.UserComments)
	fetch.Join(req.Root(), b.UserPosts)
	fetch.Join(req.Root(), b.UserComments)

	assert.Equal(t,
		[]*schema.JoinDef{b.UserComments.Def(), b.UserPosts.Def()},
		req.Root().Node().Joins())

	child, ok := req.Root().Node().Child(b.UserPosts.Def())
	require.True(t, ok)
	assert.Equal(t, b.Posts.Def(), child.Entity())

	_, ok = req.Root().Node().Child(b.PostAuthor.Def())
	assert.False(t, ok)
}

func TestWhere_Conjoins(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	assert.Nil(t, req.Root().Node().Filter())

	req.Where(where.Eq(b.UserActive, true))
	_, single := req.Root().Node().Filter().(filter.Compare)
	assert.True(t, single)

	req.Where(where.Like(b.UserName, "a%"))
	and, ok := req.Root().Node().Filter().(filter.And)
	require.True(t, ok)
	assert.Len(t, and.Exprs, 2)
}

func TestOrderBy_KeepsDeclarationOrder(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	req.OrderBy(b.UserActive, fetch.Desc).OrderBy(b.UserName, fetch.Asc)

	assert.Equal(t, []fetch.Sort{
		{Field: b.UserActive.Def(), Dir: fetch.Desc},
		{Field: b.UserName.Def(), Dir: fetch.Asc},
	}, req.Root().Node().Sorts())
	assert.Equal(t, "DESC", fetch.Desc.String())
	assert.Equal(t, "ASC", fetch.Asc.String())
}

func TestRequest_PaginationAndCount(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.New(b.Users)
	_, _, ok := req.Untyped().Pagination()
	assert.False(t, ok)
	assert.False(t, req.Untyped().CountTotal())

	req.Page(5, 10).WithTotalCount(true)
	offset, limit, ok := req.Untyped().Pagination()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), offset)
	assert.Equal(t, uint64(10), limit)
	assert.True(t, req.Untyped().CountTotal())
}

func TestHasCollection(t *testing.T) {
	b := testutil.NewBlog(t)

	tests := []struct {
		name  string
		build func() *fetch.Request
		want  bool
	}{
		{
			name:  "no joins",
			build: func() *fetch.Request { return fetch.New(b.Posts).Untyped() },
			want:  false,
		},
		{
			name: "single-valued only",
			build: func() *fetch.Request {
				r := fetch.New(b.Comments)
				fetch.Join(fetch.Join(r.Root(), b.CommentPost), b.PostAuthor)
				return r.Untyped()
			},
			want: false,
		},
		{
			name: "nested collection",
			build: func() *fetch.Request {
				r := fetch.New(b.Comments)
				fetch.Join(fetch.Join(r.Root(), b.CommentPost), b.PostComments)
				return r.Untyped()
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.build().Root().HasCollection())
		})
	}
}

func TestUntypedNode_NilJoin(t *testing.T) {
	b := testutil.NewBlog(t)

	req := fetch.NewRequest(b.Users.Def())
	child := req.Root().Join(nil)
	assert.Nil(t, child.Entity())
	assert.Same(t, child, req.Root().Join(nil))
}
