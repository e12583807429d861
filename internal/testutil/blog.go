// Package testutil holds fixtures shared by package tests: a small blog
// schema (users, posts, comments) with typed handles, its DDL and seed data.
package testutil

import (
	"testing"

	"github.com/roach88/fetchplan/internal/schema"
)

// Phantom entity types for the blog fixture.
type (
	User    struct{}
	Post    struct{}
	Comment struct{}
)

// BlogSpecs returns the blog entity definitions.
//
//	User 1--* Post 1--* Comment
//	User 1--* Comment (as author)
func BlogSpecs() []schema.EntitySpec {
	return []schema.EntitySpec{
		{
			Name:  "User",
			Table: "users",
			Key:   "id",
			Fields: []schema.FieldSpec{
				{Name: "id", Kind: schema.KindInt},
				{Name: "name", Kind: schema.KindString},
				{Name: "email", Kind: schema.KindString},
				{Name: "active", Kind: schema.KindBool},
			},
			Joins: []schema.JoinSpec{
				{Name: "posts", Target: "Post", LocalColumn: "id", TargetColumn: "author_id", Cardinality: schema.Many},
				{Name: "comments", Target: "Comment", LocalColumn: "id", TargetColumn: "author_id", Cardinality: schema.Many},
			},
		},
		{
			Name:  "Post",
			Table: "posts",
			Key:   "id",
			Fields: []schema.FieldSpec{
				{Name: "id", Kind: schema.KindInt},
				{Name: "title", Kind: schema.KindString},
				{Name: "published", Kind: schema.KindBool},
			},
			Joins: []schema.JoinSpec{
				{Name: "author", Target: "User", LocalColumn: "author_id", TargetColumn: "id", Cardinality: schema.One},
				{Name: "comments", Target: "Comment", LocalColumn: "id", TargetColumn: "post_id", Cardinality: schema.Many},
			},
		},
		{
			Name:  "Comment",
			Table: "comments",
			Key:   "id",
			Fields: []schema.FieldSpec{
				{Name: "id", Kind: schema.KindInt},
				{Name: "body", Kind: schema.KindString},
			},
			Joins: []schema.JoinSpec{
				{Name: "post", Target: "Post", LocalColumn: "post_id", TargetColumn: "id", Cardinality: schema.One},
				{Name: "author", Target: "User", LocalColumn: "author_id", TargetColumn: "id", Cardinality: schema.One},
			},
		},
	}
}

// Blog bundles the registry and every typed handle of the fixture.
type Blog struct {
	Reg *schema.Registry

	Users    schema.EntityType[User]
	Posts    schema.EntityType[Post]
	Comments schema.EntityType[Comment]

	UserID     schema.Field[User, int64]
	UserName   schema.Field[User, string]
	UserEmail  schema.Field[User, string]
	UserActive schema.Field[User, bool]

	PostID        schema.Field[Post, int64]
	PostTitle     schema.Field[Post, string]
	PostPublished schema.Field[Post, bool]

	CommentID   schema.Field[Comment, int64]
	CommentBody schema.Field[Comment, string]

	UserPosts     schema.Join[User, Post]
	UserComments  schema.Join[User, Comment]
	PostAuthor    schema.Join[Post, User]
	PostComments  schema.Join[Post, Comment]
	CommentPost   schema.Join[Comment, Post]
	CommentAuthor schema.Join[Comment, User]
}

// NewBlog builds the fixture registry and binds every handle.
func NewBlog(t testing.TB) *Blog {
	t.Helper()

	reg, err := schema.Build(BlogSpecs()...)
	if err != nil {
		t.Fatalf("schema.Build() failed: %v", err)
	}

	b := &Blog{Reg: reg}
	b.Users = schema.MustBind[User](reg, "User")
	b.Posts = schema.MustBind[Post](reg, "Post")
	b.Comments = schema.MustBind[Comment](reg, "Comment")

	b.UserID = schema.MustField[User, int64](b.Users, "id")
	b.UserName = schema.MustField[User, string](b.Users, "name")
	b.UserEmail = schema.MustField[User, string](b.Users, "email")
	b.UserActive = schema.MustField[User, bool](b.Users, "active")

	b.PostID = schema.MustField[Post, int64](b.Posts, "id")
	b.PostTitle = schema.MustField[Post, string](b.Posts, "title")
	b.PostPublished = schema.MustField[Post, bool](b.Posts, "published")

	b.CommentID = schema.MustField[Comment, int64](b.Comments, "id")
	b.CommentBody = schema.MustField[Comment, string](b.Comments, "body")

	b.UserPosts = schema.MustJoin[User, Post](b.Users, "posts", b.Posts)
	b.UserComments = schema.MustJoin[User, Comment](b.Users, "comments", b.Comments)
	b.PostAuthor = schema.MustJoin[Post, User](b.Posts, "author", b.Users)
	b.PostComments = schema.MustJoin[Post, Comment](b.Posts, "comments", b.Comments)
	b.CommentPost = schema.MustJoin[Comment, Post](b.Comments, "post", b.Posts)
	b.CommentAuthor = schema.MustJoin[Comment, User](b.Comments, "author", b.Users)

	return b
}
