package repositories

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func newTestPost(title string) *models.Post {
	post := models.NewPost(models.PostKindFound, models.PostFields{
		Title:       title,
		Description: "Black wallet with a student card",
		Category:    "Wallet",
		Location:    "Library",
		Faculty:     "Engineering",
	}, "author-1")
	post.BeforeCreate()
	return post
}

func newTestClaim(postID, claimantID string) *models.Claim {
	claim := models.NewClaim(postID, claimantID, models.Evidence{Description: "Has my initials"}, "555-0100")
	claim.ID = fmt.Sprintf("claim-%s-%s", postID, claimantID)
	claim.BeforeCreate()
	return claim
}

func TestPostRepository(t *testing.T) {
	repo := newTestRepository(t)

	t.Run("create and get post", func(t *testing.T) {
		post := newTestPost("Wallet")
		require.NoError(t, repo.Posts.Create(post))
		assert.NotEmpty(t, post.ID)

		got, err := repo.Posts.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Title, got.Title)
		assert.Equal(t, models.PostStatusOpen, got.Status)
	})

	t.Run("create duplicate id conflicts", func(t *testing.T) {
		post := newTestPost("Keys")
		require.NoError(t, repo.Posts.Create(post))

		dup := newTestPost("Keys again")
		dup.ID = post.ID
		err := repo.Posts.Create(dup)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("get missing post", func(t *testing.T) {
		_, err := repo.Posts.GetByID("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transition status", func(t *testing.T) {
		post := newTestPost("Umbrella")
		require.NoError(t, repo.Posts.Create(post))

		updated, err := repo.Posts.TransitionStatus(post.ID, models.PostStatusRejected, models.PostStatusOpen)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusRejected, updated.Status)

		_, err = repo.Posts.TransitionStatus(post.ID, models.PostStatusClaimed, models.PostStatusOpen)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestPostRepositoryList(t *testing.T) {
	repo := newTestRepository(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		post := newTestPost(fmt.Sprintf("Item %d", i))
		post.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i%2 == 1 {
			post.Kind = models.PostKindLost
			post.Faculty = "Science"
		}
		require.NoError(t, repo.Posts.Create(post))
	}

	tests := []struct {
		name   string
		filter models.PostFilter
		want   []string
	}{
		{
			name:   "all newest first",
			filter: models.PostFilter{},
			want:   []string{"Item 4", "Item 3", "Item 2", "Item 1", "Item 0"},
		},
		{
			name:   "by kind",
			filter: models.PostFilter{Kind: models.PostKindLost},
			want:   []string{"Item 3", "Item 1"},
		},
		{
			name:   "faculty ignores case",
			filter: models.PostFilter{Faculty: "science"},
			want:   []string{"Item 3", "Item 1"},
		},
		{
			name:   "second page",
			filter: models.PostFilter{Page: 2, PerPage: 2},
			want:   []string{"Item 2", "Item 1"},
		},
		{
			name:   "page past the end",
			filter: models.PostFilter{Page: 9, PerPage: 2},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.Posts.List(tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(posts))
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestTransitionRepository(t *testing.T) {
	repo := newTestRepository(t)

	post := newTestPost("Laptop")
	require.NoError(t, repo.Posts.Create(post))

	t.Run("file claim writes post and claim together", func(t *testing.T) {
		claim := newTestClaim(post.ID, "u1")
		next := post.Clone()
		next.Status = models.PostStatusClaimed
		next.ActiveClaimID = claim.ID

		err := repo.Transitions.Commit(Change{
			Post:         next,
			ExpectedPost: models.PostStatusOpen,
			Claims:       []ClaimWrite{{Claim: claim}},
		})
		require.NoError(t, err)

		stored, err := repo.Posts.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusClaimed, stored.Status)
		assert.Equal(t, claim.ID, stored.ActiveClaimID)

		claims, err := repo.Claims.ListByPost(post.ID)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, models.ClaimStatusPending, claims[0].Status)
	})

	t.Run("stale post expectation writes nothing", func(t *testing.T) {
		claim := newTestClaim(post.ID, "u2")
		next := post.Clone()
		next.Status = models.PostStatusClaimed
		next.ActiveClaimID = claim.ID

		err := repo.Transitions.Commit(Change{
			Post:         next,
			ExpectedPost: models.PostStatusOpen,
			Claims:       []ClaimWrite{{Claim: claim}},
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		_, err = repo.Claims.GetByID(claim.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		claims, err := repo.Claims.ListByPost(post.ID)
		require.NoError(t, err)
		assert.Len(t, claims, 1)
	})

	t.Run("stale claim expectation", func(t *testing.T) {
		claim, err := repo.Claims.GetByID(fmt.Sprintf("claim-%s-u1", post.ID))
		require.NoError(t, err)
		claim.Status = models.ClaimStatusApproved

		err = repo.Transitions.Commit(Change{
			Claims: []ClaimWrite{{Claim: claim, Expected: models.ClaimStatusUnderReview}},
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("missing post", func(t *testing.T) {
		ghost := newTestPost("Ghost")
		ghost.ID = "ghost"
		err := repo.Transitions.Commit(Change{Post: ghost, ExpectedPost: models.PostStatusOpen})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestTransitionRepositoryConcurrentClaims(t *testing.T) {
	repo := newTestRepository(t)

	post := newTestPost("Phone")
	require.NoError(t, repo.Posts.Create(post))

	const claimants = 8
	var wg sync.WaitGroup
	errs := make(chan error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claim := newTestClaim(post.ID, fmt.Sprintf("user-%d", i))
			next := post.Clone()
			next.Status = models.PostStatusClaimed
			next.ActiveClaimID = claim.ID
			errs <- repo.Transitions.Commit(Change{
				Post:         next,
				ExpectedPost: models.PostStatusOpen,
				Claims:       []ClaimWrite{{Claim: claim}},
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	claims, err := repo.Claims.ListByPost(post.ID)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestClaimRepositoryQueries(t *testing.T) {
	repo := newTestRepository(t)

	postA := newTestPost("Bag")
	postB := newTestPost("Scarf")
	require.NoError(t, repo.Posts.Create(postA))
	require.NoError(t, repo.Posts.Create(postB))

	pending := newTestClaim(postA.ID, "u1")
	review := newTestClaim(postB.ID, "u1")
	review.Status = models.ClaimStatusUnderReview
	review.CreatedAt = pending.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Transitions.Commit(Change{Claims: []ClaimWrite{{Claim: pending}, {Claim: review}}}))

	t.Run("by status", func(t *testing.T) {
		claims, err := repo.Claims.ListByStatus(models.ClaimStatusPending, models.ClaimStatusUnderReview)
		require.NoError(t, err)
		require.Len(t, claims, 2)
		assert.Equal(t, pending.ID, claims[0].ID)
		assert.Equal(t, review.ID, claims[1].ID)

		claims, err = repo.Claims.ListByStatus(models.ClaimStatusApproved)
		require.NoError(t, err)
		assert.Empty(t, claims)
	})

	t.Run("by claimant", func(t *testing.T) {
		claims, err := repo.Claims.ListByClaimant("u1")
		require.NoError(t, err)
		assert.Len(t, claims, 2)

		claims, err = repo.Claims.ListByClaimant("nobody")
		require.NoError(t, err)
		assert.Empty(t, claims)
	})

	t.Run("by post keeps posts apart", func(t *testing.T) {
		claims, err := repo.Claims.ListByPost(postB.ID)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, review.ID, claims[0].ID)
	})
}

func TestCommentRepository(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 12; i++ {
		comment := models.NewComment("p1", "u1", fmt.Sprintf("comment %d", i))
		require.NoError(t, repo.Comments.Create(comment))
		assert.NotEmpty(t, comment.ID)
	}
	require.NoError(t, repo.Comments.Create(models.NewComment("p2", "u1", "elsewhere")))

	t.Run("creation order", func(t *testing.T) {
		var got []*models.Comment
		err := repo.Comments.Each("p1", func(c *models.Comment) bool {
			got = append(got, c)
			return true
		})
		require.NoError(t, err)
		require.Len(t, got, 12)
		for i, c := range got {
			assert.Equal(t, fmt.Sprintf("comment %d", i), c.Content)
			if i > 0 {
				assert.True(t, c.CreatedAt.After(got[i-1].CreatedAt))
			}
		}
	})

	t.Run("stops early", func(t *testing.T) {
		seen := 0
		err := repo.Comments.Each("p1", func(*models.Comment) bool {
			seen++
			return seen < 3
		})
		require.NoError(t, err)
		assert.Equal(t, 3, seen)
	})
}

func TestLikeRepository(t *testing.T) {
	repo := newTestRepository(t)

	liked, err := repo.Likes.Toggle("p1", "u1")
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = repo.Likes.Toggle("p1", "u2")
	require.NoError(t, err)

	count, err := repo.Likes.Count("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	liked, err = repo.Likes.Toggle("p1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)

	has, err := repo.Likes.Has("p1", "u1")
	require.NoError(t, err)
	assert.False(t, has)

	count, err = repo.Likes.Count("p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationRepository(t *testing.T) {
	repo := newTestRepository(t)

	var ids []string
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			RecipientID: "u1",
			PostID:      fmt.Sprintf("p%d", i),
			Kind:        models.NotificationCommented,
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, repo.Notifications.Create(n))
		ids = append(ids, n.ID)
	}

	inbox, err := repo.Notifications.ListByRecipient("u1", 2)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "p2", inbox[0].PostID)
	assert.Equal(t, "p1", inbox[1].PostID)

	require.NoError(t, repo.Notifications.MarkRead("u1", ids[0]))
	inbox, err = repo.Notifications.ListByRecipient("u1", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 3)
	assert.True(t, inbox[2].Read)
	assert.False(t, inbox[0].Read)

	err = repo.Notifications.MarkRead("u2", ids[0])
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepositoryBackupAndLoad(t *testing.T) {
	src := newTestRepository(t)
	post := newTestPost("Watch")
	require.NoError(t, src.Posts.Create(post))

	var buf bytes.Buffer
	_, err := src.Backup(&buf)
	require.NoError(t, err)

	dst := newTestRepository(t)
	require.NoError(t, dst.Load(&buf))

	got, err := dst.Posts.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Watch", got.Title)

	require.NoError(t, dst.Clear())
	_, err = dst.Posts.GetByID(post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
