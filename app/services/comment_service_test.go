package services

import (
	"fmt"
	"testing"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "Earbuds")

	t.Run("add comment", func(t *testing.T) {
		comment, err := env.svc.Comments.AddComment(u1, post.ID, "  I think these are mine  ")
		require.NoError(t, err)
		assert.NotEmpty(t, comment.ID)
		assert.Equal(t, "I think these are mine", comment.Content)
		assert.Equal(t, u1.UserID, comment.AuthorID)
		assert.False(t, comment.CreatedAt.IsZero())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := env.svc.Comments.AddComment(u1, post.ID, "   ")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := env.svc.Comments.AddComment(u1, "missing", "hello")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = env.svc.Comments.ListComments("missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := env.svc.Comments.AddComment(nobody, post.ID, "hello")
		assert.ErrorIs(t, err, apperr.ErrAuthorization)
	})
}

func TestCommentsAreOrderedAndRestartable(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "Notebook")

	for i := 0; i < 5; i++ {
		_, err := env.svc.Comments.AddComment(u1, post.ID, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}

	seq := env.svc.Comments.Comments(post.ID)
	collect := func() []string {
		var out []string
		var last time.Time
		for c, err := range seq {
			require.NoError(t, err)
			assert.False(t, c.CreatedAt.Before(last))
			last = c.CreatedAt
			out = append(out, c.Content)
		}
		return out
	}

	first := collect()
	assert.Equal(t, []string{"comment 0", "comment 1", "comment 2", "comment 3", "comment 4"}, first)

	_, err := env.svc.Comments.AddComment(u2, post.ID, "comment 5")
	require.NoError(t, err)
	assert.Len(t, collect(), 6)

	taken := 0
	for range seq {
		taken++
		if taken == 2 {
			break
		}
	}
	assert.Equal(t, 2, taken)

	empty := env.createPost(t, "Empty")
	comments, err := env.svc.Comments.ListComments(empty.ID)
	require.NoError(t, err)
	assert.Equal(t, []*models.Comment{}, comments)
}
