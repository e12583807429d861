package hydrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchplan/internal/hydrate"
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/testutil"
)

// userPostsComments is the shape of
//
//	User{name} -> posts{title} -> comments{body}
//
// over columns t0.id, t0.name, t1.id, t1.title, t2.id, t2.body.
func userPostsComments(b *testutil.Blog) *hydrate.Shape {
	return &hydrate.Shape{
		Entity:   b.Users.Def(),
		KeyIndex: 0,
		Fields:   []hydrate.Slot{{Field: b.UserName.Def(), Index: 1}},
		Children: []*hydrate.Shape{{
			Entity:   b.Posts.Def(),
			Join:     b.UserPosts.Def(),
			KeyIndex: 2,
			Fields:   []hydrate.Slot{{Field: b.PostTitle.Def(), Index: 3}},
			Children: []*hydrate.Shape{{
				Entity:   b.Comments.Def(),
				Join:     b.PostComments.Def(),
				KeyIndex: 4,
				Fields:   []hydrate.Slot{{Field: b.CommentBody.Def(), Index: 5}},
			}},
		}},
	}
}

func row(vs ...ir.IRValue) []ir.IRValue { return vs }

var null = ir.IRNull{}

func TestHydrate_CollectionGrouping(t *testing.T) {
	b := testutil.NewBlog(t)

	// One user, three posts; post 10 has two comments, which multiplies
	// its row.
	table := &hydrate.Table{
		Columns: []string{"id", "name", "id", "title", "id", "body"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(1), ir.IRString("alice"), ir.IRInt(10), ir.IRString("Hello"), ir.IRInt(100), ir.IRString("nice")),
			row(ir.IRInt(1), ir.IRString("alice"), ir.IRInt(10), ir.IRString("Hello"), ir.IRInt(101), ir.IRString("+1")),
			row(ir.IRInt(1), ir.IRString("alice"), ir.IRInt(11), ir.IRString("Drafts"), null, null),
			row(ir.IRInt(1), ir.IRString("alice"), ir.IRInt(12), ir.IRString("Third"), ir.IRInt(102), ir.IRString("meh")),
		},
	}

	rows, err := hydrate.Hydrate(table, userPostsComments(b))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	users := hydrate.As[testutil.User](rows)
	name, ok := hydrate.Get(users[0], b.UserName)
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	posts := hydrate.GetJoinSet(users[0], b.UserPosts)
	require.Len(t, posts, 3)
	var titles []string
	for _, p := range posts {
		title, _ := hydrate.Get(p, b.PostTitle)
		titles = append(titles, title)
	}
	assert.Equal(t, []string{"Hello", "Drafts", "Third"}, titles)

	assert.Len(t, hydrate.GetJoinSet(posts[0], b.PostComments), 2)
	assert.Empty(t, hydrate.GetJoinSet(posts[1], b.PostComments))
	assert.Len(t, hydrate.GetJoinSet(posts[2], b.PostComments), 1)
}

func TestHydrate_RootsInFirstSeenOrder(t *testing.T) {
	b := testutil.NewBlog(t)

	shape := &hydrate.Shape{
		Entity:   b.Users.Def(),
		KeyIndex: 0,
		Fields:   []hydrate.Slot{{Field: b.UserName.Def(), Index: 1}},
	}
	table := &hydrate.Table{
		Columns: []string{"id", "name"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(3), ir.IRString("carol")),
			row(ir.IRInt(1), ir.IRString("alice")),
			row(ir.IRInt(3), ir.IRString("carol")),
		},
	}

	rows, err := hydrate.Hydrate(table, shape)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ir.IRInt(3), rows[0].Key())
	assert.Equal(t, ir.IRInt(1), rows[1].Key())
}

func TestHydrate_SingularJoin(t *testing.T) {
	b := testutil.NewBlog(t)

	shape := &hydrate.Shape{
		Entity:   b.Comments.Def(),
		KeyIndex: 0,
		Children: []*hydrate.Shape{{
			Entity:   b.Users.Def(),
			Join:     b.CommentAuthor.Def(),
			KeyIndex: 1,
			Fields:   []hydrate.Slot{{Field: b.UserName.Def(), Index: 2}},
		}},
	}
	table := &hydrate.Table{
		Columns: []string{"id", "id", "name"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(100), ir.IRInt(2), ir.IRString("bob")),
			row(ir.IRInt(104), null, null),
		},
	}

	rows, err := hydrate.Hydrate(table, shape)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	comments := hydrate.As[testutil.Comment](rows)
	author, ok := hydrate.GetJoin(comments[0], b.CommentAuthor)
	require.True(t, ok)
	name, _ := hydrate.Get(author, b.UserName)
	assert.Equal(t, "bob", name)

	_, ok = hydrate.GetJoin(comments[1], b.CommentAuthor)
	assert.False(t, ok)

	absent, err := rows[1].Join(b.CommentAuthor.Def())
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestHydrate_BoolCoercion(t *testing.T) {
	b := testutil.NewBlog(t)

	shape := &hydrate.Shape{
		Entity:   b.Users.Def(),
		KeyIndex: 0,
		Fields:   []hydrate.Slot{{Field: b.UserActive.Def(), Index: 1}},
	}
	table := &hydrate.Table{
		Columns: []string{"id", "active"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(1), ir.IRInt(1)),
			row(ir.IRInt(3), ir.IRInt(0)),
			row(ir.IRInt(4), ir.IRBool(true)),
		},
	}

	rows, err := hydrate.Hydrate(table, shape)
	require.NoError(t, err)
	users := hydrate.As[testutil.User](rows)

	for i, want := range []bool{true, false, true} {
		got, ok := hydrate.Get(users[i], b.UserActive)
		require.True(t, ok)
		assert.Equal(t, want, got, "row %d", i)
	}
}

func TestRow_Accessors(t *testing.T) {
	b := testutil.NewBlog(t)

	table := &hydrate.Table{
		Columns: []string{"id", "name", "id", "title", "id", "body"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(2), null, null, null, null, null),
		},
	}
	rows, err := hydrate.Hydrate(table, userPostsComments(b))
	require.NoError(t, err)
	r := rows[0]

	v, ok := r.Get(b.UserName.Def())
	assert.True(t, ok, "selected NULL is still selected")
	assert.Equal(t, null, v)

	_, isString := hydrate.Get(hydrate.RowOf[testutil.User]{Row: r}, b.UserName)
	assert.False(t, isString)

	v, ok = r.Get(b.UserID.Def())
	assert.True(t, ok, "key is always available")
	assert.Equal(t, ir.IRInt(2), v)

	_, ok = r.Get(b.UserEmail.Def())
	assert.False(t, ok)

	_, err = r.Join(b.UserPosts.Def())
	assert.ErrorContains(t, err, "many-valued")

	_, err = r.JoinSet(b.UserComments.Def())
	assert.ErrorContains(t, err, "not requested")

	assert.Equal(t, b.Users.Def(), r.Entity())
}

func TestRow_MarshalJSON(t *testing.T) {
	b := testutil.NewBlog(t)

	table := &hydrate.Table{
		Columns: []string{"id", "name", "id", "title", "id", "body"},
		Rows: [][]ir.IRValue{
			row(ir.IRInt(1), ir.IRString("alice"), ir.IRInt(10), ir.IRString("Hello"), ir.IRInt(100), ir.IRString("nice")),
			row(ir.IRInt(2), ir.IRString("bob"), null, null, null, null),
		},
	}
	rows, err := hydrate.Hydrate(table, userPostsComments(b))
	require.NoError(t, err)

	out, err := rows[0].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"alice","posts":[{"comments":[{"body":"nice"}],"title":"Hello"}]}`, string(out))

	out, err = ir.MarshalCanonical(hydrate.Rows(rows))
	require.NoError(t, err)
	assert.Equal(t,
		`[{"name":"alice","posts":[{"comments":[{"body":"nice"}],"title":"Hello"}]},{"name":"bob","posts":[]}]`,
		string(out))
}

func TestHydrate_Errors(t *testing.T) {
	b := testutil.NewBlog(t)
	shape := userPostsComments(b)

	_, err := hydrate.Hydrate(&hydrate.Table{Columns: []string{"id"}}, shape)
	assert.ErrorContains(t, err, "shape needs 6")

	_, err = hydrate.Hydrate(&hydrate.Table{
		Columns: make([]string, 6),
		Rows:    [][]ir.IRValue{row(null, null, null, null, null, null)},
	}, shape)
	assert.ErrorContains(t, err, "root key")

	_, err = hydrate.Hydrate(&hydrate.Table{}, nil)
	assert.Error(t, err)
}
