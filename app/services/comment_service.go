package services

import (
	"fmt"
	"iter"

	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/policy"
	"lostfound/app/repositories"
	"lostfound/app/session"

	"go.uber.org/zap"
)

// CommentService handles business logic for comments
type CommentService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	publisher   Publisher
	logger      *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, publisher Publisher, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// AddComment appends a comment to an existing post
func (s *CommentService) AddComment(p session.Principal, postID, content string) (*models.Comment, error) {
	if err := authorize(p, policy.ActionAddComment, "addComment"); err != nil {
		return nil, err
	}

	comment := models.NewComment(postID, p.UserID, content)
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, err
	}

	// Verify post exists
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	s.logger.Debug("comment added", zap.String("post_id", postID), zap.String("comment_id", comment.ID))

	if s.publisher != nil {
		s.publisher.PublishAsync(events.CommentAddedEventType, events.NewEvent(events.CommentAddedEventType, events.CommentEvent{
			PostID:     postID,
			CommentID:  comment.ID,
			AuthorID:   comment.AuthorID,
			PostAuthor: post.AuthorID,
		}))
	}
	return comment, nil
}

// Comments lazily yields a post's comments oldest first. Each range re-reads the store, so the
// sequence can be restarted and reflects comments added since the last pass.
func (s *CommentService) Comments(postID string) iter.Seq2[*models.Comment, error] {
	return func(yield func(*models.Comment, error) bool) {
		if _, err := s.postRepo.GetByID(postID); err != nil {
			yield(nil, err)
			return
		}
		stopped := false
		err := s.commentRepo.Each(postID, func(c *models.Comment) bool {
			if !yield(c, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, fmt.Errorf("failed to read comments: %w", err))
		}
	}
}

// ListComments collects Comments into a slice
func (s *CommentService) ListComments(postID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	for c, err := range s.Comments(postID) {
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
