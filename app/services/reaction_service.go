package services

import (
	"fmt"

	"lostfound/app/policy"
	"lostfound/app/repositories"
	"lostfound/app/session"
)

// ReactionService manages likes. A like is a (post, user) pair, so the count is the number of
// distinct users and toggling twice restores the original state.
type ReactionService struct {
	postRepo repositories.PostRepository
	likeRepo repositories.LikeRepository
}

// NewReactionService creates a new ReactionService
func NewReactionService(postRepo repositories.PostRepository, likeRepo repositories.LikeRepository) *ReactionService {
	return &ReactionService{
		postRepo: postRepo,
		likeRepo: likeRepo,
	}
}

// ToggleLike flips the principal's like on a post and returns the new state and count
func (s *ReactionService) ToggleLike(p session.Principal, postID string) (bool, int, error) {
	if err := authorize(p, policy.ActionLike, "like"); err != nil {
		return false, 0, err
	}
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return false, 0, err
	}

	liked, err := s.likeRepo.Toggle(postID, p.UserID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}
	count, err := s.likeRepo.Count(postID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return liked, count, nil
}

// LikeCount returns the number of distinct users who like a post
func (s *ReactionService) LikeCount(postID string) (int, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return 0, err
	}
	return s.likeRepo.Count(postID)
}

// HasLiked reports whether userID likes the post
func (s *ReactionService) HasLiked(postID, userID string) (bool, error) {
	return s.likeRepo.Has(postID, userID)
}

// Summary is the like state of a post as seen by one user
type Summary struct {
	PostID string `json:"postId"`
	Count  int    `json:"count"`
	Liked  bool   `json:"liked"`
}

// Summarize returns the count and, for an authenticated principal, whether they like the post
func (s *ReactionService) Summarize(p session.Principal, postID string) (*Summary, error) {
	count, err := s.LikeCount(postID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{PostID: postID, Count: count}
	if p.Authenticated() {
		if summary.Liked, err = s.HasLiked(postID, p.UserID); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

