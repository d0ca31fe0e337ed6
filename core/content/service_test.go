package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kampi/core/content"
	dummydb "github.com/trezcool/kampi/storage/database/dummy"
)

func setup(t *testing.T) content.Service {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	return content.NewService(dummydb.NewContentRepository(db))
}

func createPost(t *testing.T, svc content.Service, title string, published bool) content.Post {
	t.Helper()

	p, err := svc.CreatePost(context.Background(), content.NewPost{
		Title:     title,
		Body:      "lorem ipsum",
		Published: published,
	})
	require.NoError(t, err)
	return p
}

func TestService_CreatePost(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	p := createPost(t, svc, "Camp Schedule 2021", true)
	assert.Equal(t, "camp-schedule-2021", p.Slug)
	assert.Equal(t, 0, p.Position)

	p2 := createPost(t, svc, "What to Bring", true)
	assert.Equal(t, 1, p2.Position)

	// a title collision gets a disambiguated slug, not an error; the rest of
	// the post survives the retry intact
	p3 := createPost(t, svc, "Camp Schedule 2021", false)
	assert.NotEqual(t, p.Slug, p3.Slug)
	assert.Contains(t, p3.Slug, "camp-schedule-2021-")
	assert.Equal(t, "Camp Schedule 2021", p3.Title)
	assert.Equal(t, "lorem ipsum", p3.Body)
	assert.Equal(t, 2, p3.Position)

	got, err := svc.GetPostBySlug(ctx, "camp-schedule-2021")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestService_QueryPosts(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pub := createPost(t, svc, "Published Post", true)
	draft := createPost(t, svc, "Draft Post", false)

	all, err := svc.QueryPosts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// ascending position
	assert.Equal(t, pub.ID, all[0].ID)
	assert.Equal(t, draft.ID, all[1].ID)

	published, err := svc.QueryPosts(ctx, true)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, pub.ID, published[0].ID)
}

func TestService_UpdatePost(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	p := createPost(t, svc, "Old Title", false)

	published := true
	got, err := svc.UpdatePost(ctx, p.ID, content.UpdatePost{
		Title:     "Brand New Title",
		Published: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, "Brand New Title", got.Title)
	assert.Equal(t, "brand-new-title", got.Slug) // re-slugged on title change
	assert.True(t, got.Published)
	assert.Equal(t, "lorem ipsum", got.Body)

	_, err = svc.UpdatePost(ctx, "00000000-0000-0000-0000-000000000000", content.UpdatePost{Title: "nope"})
	assert.Equal(t, content.ErrPostNotFound, err)
}

func TestService_ReorderPosts(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	p1 := createPost(t, svc, "First", true)
	p2 := createPost(t, svc, "Second", true)
	p3 := createPost(t, svc, "Third", true)

	require.NoError(t, svc.ReorderPosts(ctx, content.PostOrder{IDs: []string{p3.ID, p1.ID, p2.ID}}))

	all, err := svc.QueryPosts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, p3.ID, all[0].ID)
	assert.Equal(t, p1.ID, all[1].ID)
	assert.Equal(t, p2.ID, all[2].ID)
}

func TestService_DeletePosts(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	p := createPost(t, svc, "Going Away", true)
	require.NoError(t, svc.DeletePosts(ctx, p.ID))

	_, err := svc.GetPost(ctx, p.ID)
	assert.Equal(t, content.ErrPostNotFound, err)
}

func TestService_Notifications(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	n1, err := svc.CreateNotification(ctx, content.NewNotification{Title: "Bus leaves at 6am", Body: "Sharp!"})
	require.NoError(t, err)
	n2, err := svc.CreateNotification(ctx, content.NewNotification{Title: "Bring your own blanket", Body: "Nights get cold."})
	require.NoError(t, err)

	all, err := svc.QueryNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest first
	assert.Equal(t, n2.ID, all[0].ID)
	assert.Equal(t, n1.ID, all[1].ID)

	require.NoError(t, svc.DeleteNotifications(ctx, n1.ID, n2.ID))
	all, err = svc.QueryNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
