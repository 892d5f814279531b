// AngelaMos | 2026
// service_test.go

package post_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/policy"
	"github.com/carterperez-dev/blog-api/internal/post"
	"github.com/carterperez-dev/blog-api/internal/testutil"
)

var (
	admin     = policy.Subject{UserID: "admin-1", Role: policy.RoleAdmin}
	otherAdm  = policy.Subject{UserID: "admin-2", Role: policy.RoleAdmin}
	reader    = policy.Subject{UserID: "user-1", Role: policy.RoleUser}
	anonymous = policy.Subject{}
)

func ptr(s string) *string { return &s }

func newService() (*post.Service, *testutil.PostRepo, *testutil.ObjectStore) {
	repo := testutil.NewPostRepo()
	store := testutil.NewObjectStore()
	return post.NewService(repo, store), repo, store
}

func pngUpload(t *testing.T) *media.Upload {
	t.Helper()
	upload, err := media.NewUpload("cover.png", testutil.PNG, 1<<20)
	require.NoError(t, err)
	return upload
}

func createPost(t *testing.T, svc *post.Service, caller policy.Subject, title string) *post.PostResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), caller, post.CreatePostRequest{
		Title:   title,
		Content: "body of " + title,
		Tags:    "go, web",
	})
	require.NoError(t, err)
	return resp
}

func TestService_Create(t *testing.T) {
	svc, _, store := newService()

	resp, err := svc.Create(context.Background(), admin, post.CreatePostRequest{
		Title:   "Hello",
		Content: "World",
		Tags:    "a, b,c",
		Image:   pngUpload(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "admin-1", resp.AuthorID)
	assert.Equal(t, []string{"a", "b", "c"}, resp.Tags)
	assert.Equal(t, "/post/"+resp.ID+"/image", resp.ImageURL)
	assert.Equal(t, 1, store.Len())
}

func TestService_CreateDeniedNeverTouchesStorage(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()
	req := post.CreatePostRequest{Title: "Nope", Content: "Nope", Image: pngUpload(t)}

	_, err := svc.Create(ctx, reader, req)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, anonymous, req)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, store.Len())
}

func TestService_ListNewestFirstAndMine(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	createPost(t, svc, admin, "first")
	createPost(t, svc, otherAdm, "second")
	createPost(t, svc, admin, "third")

	all, err := svc.List(ctx, anonymous, false)
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, "third", all.Posts[0].Title)
	assert.Equal(t, "first", all.Posts[2].Title)

	mine, err := svc.List(ctx, admin, true)
	require.NoError(t, err)
	require.Equal(t, 2, mine.Total)
	for _, p := range mine.Posts {
		assert.Equal(t, "admin-1", p.AuthorID)
	}

	none, err := svc.List(ctx, reader, true)
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.NotNil(t, none.Posts)

	_, err = svc.List(ctx, anonymous, true)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestService_GetMissing(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Get(context.Background(), "definitely-not-an-id")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_UpdateOrderOfChecks(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	p := createPost(t, svc, admin, "original")

	_, err := svc.Update(ctx, reader, "missing-id", post.UpdatePostRequest{})
	assert.ErrorIs(t, err, core.ErrNotFound, "existence first")

	_, err = svc.Update(ctx, reader, p.ID, post.UpdatePostRequest{})
	assert.ErrorIs(t, err, core.ErrForbidden, "ownership before field check")

	_, err = svc.Update(ctx, admin, p.ID, post.UpdatePostRequest{})
	assert.ErrorIs(t, err, core.ErrNoFields)
}

func TestService_UpdateByOwnerAndOtherAdmin(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	p := createPost(t, svc, admin, "original")

	updated, err := svc.Update(ctx, admin, p.ID, post.UpdatePostRequest{
		Title: ptr("renamed"),
		Tags:  ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, p.Content, updated.Content)
	assert.Empty(t, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	updated, err = svc.Update(ctx, otherAdm, p.ID, post.UpdatePostRequest{Content: ptr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, "admin-1", updated.AuthorID)
}

func TestService_UpdateReplacesImage(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()
	p := createPost(t, svc, admin, "with image")

	_, err := svc.Update(ctx, admin, p.ID, post.UpdatePostRequest{Image: pngUpload(t)})
	require.NoError(t, err)
	first, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin, p.ID, post.UpdatePostRequest{Image: pngUpload(t)})
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	assert.False(t, store.Has(*first.ImageKey))
	assert.True(t, store.Has(*second.ImageKey))

	obj, err := svc.OpenImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestService_Delete(t *testing.T) {
	svc, _, store := newService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, admin, post.CreatePostRequest{
		Title:   "doomed",
		Content: "soon gone",
		Image:   pngUpload(t),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, reader, resp.ID), core.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, anonymous, resp.ID), core.ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, otherAdm, resp.ID))
	assert.Zero(t, store.Len())

	_, err = svc.Get(ctx, resp.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, admin, resp.ID), core.ErrNotFound)
}

func TestService_OpenImageWithoutImage(t *testing.T) {
	svc, _, _ := newService()
	p := createPost(t, svc, admin, "plain")

	_, err := svc.OpenImage(context.Background(), p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
