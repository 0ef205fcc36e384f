package services

import (
	"context"
	"testing"

	"lostfound/app/apperr"
	"lostfound/app/models"
	"lostfound/app/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)

	valid := models.PostFields{
		Title:       "  Black wallet ",
		Description: "Leather, student card inside",
		Category:    "Wallet",
		Location:    "Library",
		Faculty:     "Law",
	}

	tests := []struct {
		name    string
		who     session.Principal
		kind    models.PostKind
		mutate  func(*models.PostFields)
		wantErr error
	}{
		{name: "valid", who: u1, kind: models.PostKindLost},
		{name: "officer may post", who: o1, kind: models.PostKindFound},
		{name: "unauthenticated", who: nobody, kind: models.PostKindLost, wantErr: apperr.ErrAuthorization},
		{name: "unknown kind", who: u1, kind: "Stolen", wantErr: apperr.ErrValidation},
		{name: "blank title", who: u1, kind: models.PostKindLost, mutate: func(f *models.PostFields) { f.Title = "   " }, wantErr: apperr.ErrValidation},
		{name: "blank description", who: u1, kind: models.PostKindLost, mutate: func(f *models.PostFields) { f.Description = "" }, wantErr: apperr.ErrValidation},
		{name: "blank category", who: u1, kind: models.PostKindLost, mutate: func(f *models.PostFields) { f.Category = "" }, wantErr: apperr.ErrValidation},
		{name: "blank location", who: u1, kind: models.PostKindLost, mutate: func(f *models.PostFields) { f.Location = "\t" }, wantErr: apperr.ErrValidation},
		{name: "blank faculty", who: u1, kind: models.PostKindLost, mutate: func(f *models.PostFields) { f.Faculty = "" }, wantErr: apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := valid
			if tt.mutate != nil {
				tt.mutate(&fields)
			}
			post, err := env.svc.Posts.CreatePost(tt.who, tt.kind, fields)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, post.ID)
			assert.Equal(t, models.PostStatusOpen, post.Status)
			assert.Equal(t, "Black wallet", post.Title)
			assert.Equal(t, tt.who.UserID, post.AuthorID)
			assert.False(t, post.CreatedAt.IsZero())

			stored, err := env.svc.Posts.GetPost(post.ID)
			require.NoError(t, err)
			assert.Equal(t, post.Title, stored.Title)
		})
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(env.svc.Posts.metrics.postsCreated))
}

func TestGetPostNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Posts.GetPost("missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	first := env.createPost(t, "Umbrella")
	second := env.createPost(t, "Scarf")

	_, err := env.svc.Claims.FileClaim(context.Background(), u1, second.ID, testEvd, "08123")
	require.NoError(t, err)

	all, err := env.svc.Posts.ListPosts(models.PostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := env.svc.Posts.ListPosts(models.PostFilter{Status: models.PostStatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	lost, err := env.svc.Posts.ListPosts(models.PostFilter{Kind: models.PostKindLost})
	require.NoError(t, err)
	assert.Empty(t, lost)
}

func TestTransitionStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		next     models.PostStatus
		expected models.PostStatus
		wantErr  error
	}{
		{name: "claim edge", next: models.PostStatusClaimed, expected: models.PostStatusOpen, wantErr: apperr.ErrInvalidState},
		{name: "verify edge", next: models.PostStatusVerified, expected: models.PostStatusClaimed, wantErr: apperr.ErrInvalidState},
		{name: "not an edge", next: models.PostStatusOpen, expected: models.PostStatusVerified, wantErr: apperr.ErrInvalidState},
		{name: "stale expectation", next: models.PostStatusRejected, expected: models.PostStatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := env.createPost(t, "Mug")
			got, err := env.svc.Posts.TransitionStatus(ctx, post.ID, tt.next, tt.expected)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, got.Status)

			_, err = env.svc.Posts.TransitionStatus(ctx, post.ID, tt.next, tt.expected)
			assert.ErrorIs(t, err, apperr.ErrConflict)
		})
	}

	_, err := env.svc.Posts.TransitionStatus(ctx, "missing", models.PostStatusRejected, models.PostStatusOpen)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClosePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, "Spam")

	_, err := env.svc.Posts.ClosePost(ctx, u1, post.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	closed, err := env.svc.Posts.ClosePost(ctx, o1, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusRejected, closed.Status)

	_, err = env.svc.Claims.FileClaim(ctx, u2, post.ID, testEvd, "08123")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	claimed := env.createPost(t, "Claimed")
	_, err = env.svc.Claims.FileClaim(ctx, u2, claimed.ID, testEvd, "08123")
	require.NoError(t, err)
	_, err = env.svc.Posts.ClosePost(ctx, o1, claimed.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSearchPosts(t *testing.T) {
	env := newTestEnv(t)
	wallet := env.createPost(t, "Black wallet")
	env.createPost(t, "Red umbrella")

	posts, err := env.svc.Posts.SearchPosts("wallet", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, wallet.ID, posts[0].ID)

	_, err = env.svc.Claims.FileClaim(context.Background(), u1, wallet.ID, testEvd, "08123")
	require.NoError(t, err)
	posts, err = env.svc.Posts.SearchPosts("wallet", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostStatusClaimed, posts[0].Status)

	noIndex := NewPostService(env.repo.Posts, nil, NewPostLocks(), nil, nil)
	_, err = noIndex.SearchPosts("wallet", 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}
