package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"
	"lostfound/app/policy"
	"lostfound/app/repositories"
	"lostfound/app/session"

	"go.uber.org/zap"
)

const maxSearchResults = 100

// PostService handles business logic for lost and found posts
type PostService struct {
	postRepo repositories.PostRepository
	index    PostIndexer
	locks    *PostLocks
	metrics  *workflowMetrics
	logger   *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, index PostIndexer, locks *PostLocks, metrics *workflowMetrics, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		postRepo: postRepo,
		index:    index,
		locks:    locks,
		metrics:  metrics,
		logger:   logger,
	}
}

// CreatePost validates and stores a new Open post authored by the principal
func (s *PostService) CreatePost(p session.Principal, kind models.PostKind, fields models.PostFields) (*models.Post, error) {
	if err := authorize(p, policy.ActionCreatePost, "createPost"); err != nil {
		return nil, err
	}

	post := models.NewPost(kind, fields, p.UserID)
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, err
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.metrics.postCreated()
	s.reindex(post)
	s.logger.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("kind", string(post.Kind)),
		zap.String("author_id", post.AuthorID))
	return post, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(id string) (*models.Post, error) {
	return s.postRepo.GetByID(id)
}

// ListPosts returns posts matching filter, newest first
func (s *PostService) ListPosts(filter models.PostFilter) ([]*models.Post, error) {
	return s.postRepo.List(filter)
}

// TransitionStatus moves a post from expected to next when no claim is involved. Edges that
// admit, decide or withdraw a claim belong to ClaimService and fail with ErrInvalidState.
func (s *PostService) TransitionStatus(ctx context.Context, id string, next, expected models.PostStatus) (*models.Post, error) {
	event, ok := postEventFor(expected, next)
	if !ok {
		return nil, apperr.InvalidState("transitionStatus", "no transition from %s to %s", expected, next)
	}
	if event != PostEventClosed {
		return nil, apperr.InvalidState("transitionStatus", "%s to %s moves with a claim", expected, next)
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock post %s: %w", id, err)
	}
	post, err := s.postRepo.TransitionStatus(id, next, expected)
	unlock()
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.metrics.conflict("transitionStatus")
		}
		return nil, err
	}

	s.reindex(post)
	return post, nil
}

// ClosePost lets an officer retire an Open post that will never be resolved
func (s *PostService) ClosePost(ctx context.Context, p session.Principal, id string) (*models.Post, error) {
	if err := authorize(p, policy.ActionClosePost, "closePost"); err != nil {
		return nil, err
	}
	post, err := s.TransitionStatus(ctx, id, models.PostStatusRejected, models.PostStatusOpen)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post closed", zap.String("post_id", id), zap.String("officer_id", p.UserID))
	return post, nil
}

// SearchPosts runs a full-text query and returns the matching posts by relevance
func (s *PostService) SearchPosts(query string, limit int) ([]*models.Post, error) {
	if s.index == nil {
		return nil, apperr.InvalidState("searchPosts", "search index is not configured")
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	hits, err := s.index.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	posts := make([]*models.Post, 0, len(hits))
	for _, hit := range hits {
		post, err := s.postRepo.GetByID(hit.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// reindex updates the search index. Failures are logged; the store stays authoritative.
func (s *PostService) reindex(post *models.Post) {
	reindexPost(s.index, s.logger, post)
}

func reindexPost(index PostIndexer, logger *zap.Logger, post *models.Post) {
	if index == nil || post == nil {
		return
	}
	if err := index.IndexPost(post); err != nil {
		logger.Warn("failed to index post", zap.String("post_id", post.ID), zap.Error(err))
	}
}

// authorize checks the principal is authenticated and allowed to perform action
func authorize(p session.Principal, action policy.Action, op string) error {
	if !p.Authenticated() {
		return apperr.Authorization(op, "authentication required")
	}
	if !policy.CanPerform(p.Role, action) {
		return apperr.Authorization(op, "role %s may not %s", p.Role, action)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
