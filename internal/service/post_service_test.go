package service

import (
	"context"
	"strings"
	"testing"

	"blogsphere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostFixture(maxLen int, users ...*models.User) (*PostService, *postRepoStub) {
	repo := newPostRepoStub(nil)
	return NewPostService(repo, noopUserRepo(users...), fixedClock{testNow}, maxLen), repo
}

func TestPostService_Create(t *testing.T) {
	svc, repo := newPostFixture(0)

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: 7,
		Body:     "  Hello *world*  ",
		ImageURL: " https://cdn.example.com/a.png ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello *world*", post.Body)
	assert.Equal(t, "<p>Hello <em>world</em></p>", post.BodyHTML)
	require.NotNil(t, post.ImageURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *post.ImageURL)
	assert.True(t, post.CreatedAt.Equal(testNow))
	assert.Len(t, repo.posts, 1)
}

func TestPostService_Create_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty body", CreatePostInput{AuthorID: 1, Body: ""}},
		{"whitespace body", CreatePostInput{AuthorID: 1, Body: " \n\t "}},
		{"body too long", CreatePostInput{AuthorID: 1, Body: strings.Repeat("x", 21)}},
		{"relative image url", CreatePostInput{AuthorID: 1, Body: "ok", ImageURL: "/a.png"}},
		{"non-http image url", CreatePostInput{AuthorID: 1, Body: "ok", ImageURL: "javascript:alert(1)"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo := newPostFixture(20)
			_, err := svc.Create(context.Background(), tt.in)
			assertValidationError(t, err)
			assert.Empty(t, repo.posts)
		})
	}
}

func TestPostService_Create_LengthCountsCharacters(t *testing.T) {
	svc, _ := newPostFixture(5)
	_, err := svc.Create(context.Background(), CreatePostInput{AuthorID: 1, Body: "héllo"})
	assert.NoError(t, err)
}

func TestPostService_Get(t *testing.T) {
	svc, repo := newPostFixture(0)
	repo.add(testPost(3, 1, 0))

	post, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "<p>post body</p>", post.BodyHTML)

	_, err = svc.Get(context.Background(), 99)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_Edit_Permissions(t *testing.T) {
	author := testUser(1, "author", models.RoleUser)
	other := testUser(2, "other", models.RoleUser)
	mod := testUser(3, "mod", models.RoleModerator)
	admin := testUser(4, "boss", models.RoleAdmin)

	tests := []struct {
		name     string
		editorID uint
		wantCode string
	}{
		{"author", author.ID, ""},
		{"moderator", mod.ID, ""},
		{"admin", admin.ID, ""},
		{"other user", other.ID, models.CodeForbidden},
		{"unknown user", 42, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newPostFixture(0, author, other, mod, admin)
			repo.add(testPost(1, author.ID, -60))

			post, err := svc.Edit(context.Background(), EditPostInput{EditorID: tt.editorID, PostID: 1, Body: "edited"})
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Equal(t, "post body", repo.posts[0].Body)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "edited", post.Body)
			assert.Equal(t, "<p>edited</p>", post.BodyHTML)
			assert.True(t, post.UpdatedAt.Equal(testNow))
			assert.Equal(t, "edited", repo.posts[0].Body)
		})
	}
}

func TestPostService_Edit_AuthorRoleMustWrite(t *testing.T) {
	author := testUser(1, "muted", "suspended")
	svc, repo := newPostFixture(0, author)
	repo.add(testPost(1, author.ID, 0))

	_, err := svc.Edit(context.Background(), EditPostInput{EditorID: author.ID, PostID: 1, Body: "edited"})
	assertCode(t, err, models.CodeForbidden)
	assert.Equal(t, "post body", repo.posts[0].Body)
}

func TestPostService_Edit_ValidatesBody(t *testing.T) {
	author := testUser(1, "author", models.RoleUser)
	svc, repo := newPostFixture(0, author)
	repo.add(testPost(1, author.ID, 0))

	_, err := svc.Edit(context.Background(), EditPostInput{EditorID: author.ID, PostID: 1, Body: "   "})
	assertValidationError(t, err)

	_, err = svc.Edit(context.Background(), EditPostInput{EditorID: author.ID, PostID: 2, Body: "x"})
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_Delete_Permissions(t *testing.T) {
	author := testUser(1, "author", models.RoleUser)
	mod := testUser(3, "mod", models.RoleModerator)
	admin := testUser(4, "boss", models.RoleAdmin)

	tests := []struct {
		name     string
		editorID uint
		wantCode string
	}{
		{"author", author.ID, ""},
		{"admin", admin.ID, ""},
		{"moderator cannot delete", mod.ID, models.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newPostFixture(0, author, mod, admin)
			repo.add(testPost(1, author.ID, 0))

			err := svc.Delete(context.Background(), tt.editorID, 1)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Empty(t, repo.deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []uint{1}, repo.deleted)
		})
	}
}
