package repositories

import "lostfound/app/models"

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id string) (*models.Post, error)
	List(filter models.PostFilter) ([]*models.Post, error)
	TransitionStatus(id string, next, expected models.PostStatus) (*models.Post, error)
}

// ClaimRepository defines read access to the claim ledger. Claims are written only through
// TransitionRepository so that every claim write lands together with its post.
type ClaimRepository interface {
	GetByID(id string) (*models.Claim, error)
	ListByPost(postID string) ([]*models.Claim, error)
	ListByStatus(statuses ...models.ClaimStatus) ([]*models.Claim, error)
	ListByClaimant(claimantID string) ([]*models.Claim, error)
}

// ClaimWrite is one claim record in a Change. An empty Expected means the claim is new.
type ClaimWrite struct {
	Claim    *models.Claim
	Expected models.ClaimStatus
}

// Change is a set of post and claim writes committed atomically. Each record is written only
// if its stored status still equals the expected one.
type Change struct {
	Post         *models.Post
	ExpectedPost models.PostStatus
	Claims       []ClaimWrite
}

// TransitionRepository commits workflow changes that span posts and claims.
type TransitionRepository interface {
	Commit(change Change) error
}

// CommentRepository defines the interface for the append-only comment log
type CommentRepository interface {
	Create(comment *models.Comment) error
	// Each calls fn for the post's comments in creation order until fn returns false.
	Each(postID string, fn func(*models.Comment) bool) error
}

// LikeRepository stores the set of (post, user) like pairs.
type LikeRepository interface {
	Toggle(postID, userID string) (bool, error)
	Has(postID, userID string) (bool, error)
	Count(postID string) (int, error)
}

// NotificationRepository stores per-user inbox entries.
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByRecipient(recipientID string, limit int) ([]*models.Notification, error)
	MarkRead(recipientID, id string) error
}
