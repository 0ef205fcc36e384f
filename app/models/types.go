package models

import "time"

// PostKind tells whether the item was lost or found by the author.
type PostKind string

const (
	PostKindLost  PostKind = "Lost"
	PostKindFound PostKind = "Found"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostStatusOpen     PostStatus = "Open"
	PostStatusClaimed  PostStatus = "Claimed"
	PostStatusVerified PostStatus = "Verified"
	PostStatusRejected PostStatus = "Rejected"
)

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "Pending"
	ClaimStatusUnderReview ClaimStatus = "UnderReview"
	ClaimStatusApproved    ClaimStatus = "Approved"
	ClaimStatusRejected    ClaimStatus = "Rejected"
	ClaimStatusWithdrawn   ClaimStatus = "Withdrawn"
)

// Role is supplied per request by the session layer.
type Role string

const (
	RoleGeneral Role = "General"
	RoleOfficer Role = "Officer"
)

// Post represents a lost or found item report.
type Post struct {
	ID            string     `json:"id"`
	Kind          PostKind   `json:"kind" validate:"required,oneof=Lost Found"`
	Status        PostStatus `json:"status" validate:"required,oneof=Open Claimed Verified Rejected"`
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"required,max=2000"`
	Category      string     `json:"category" validate:"required,max=100"`
	Location      string     `json:"location" validate:"required,max=200"`
	Faculty       string     `json:"faculty" validate:"required,max=200"`
	ImageRef      string     `json:"imageRef,omitempty" validate:"max=500"`
	AuthorID      string     `json:"authorId" validate:"required"`
	ActiveClaimID string     `json:"activeClaimId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Evidence backs a claim. ProofRef points into external file storage and is never interpreted.
type Evidence struct {
	Description string `json:"description" validate:"required,max=2000"`
	ProofRef    string `json:"proofRef,omitempty" validate:"max=500"`
}

// Claim is a user's assertion of ownership (lost post) or of having found the item (found post).
type Claim struct {
	ID              string      `json:"id"`
	PostID          string      `json:"postId" validate:"required"`
	ClaimantID      string      `json:"claimantId" validate:"required"`
	Evidence        Evidence    `json:"evidence"`
	Contact         string      `json:"contact" validate:"required,max=200"`
	Status          ClaimStatus `json:"status" validate:"required,oneof=Pending UnderReview Approved Rejected Withdrawn"`
	ReviewerID      string      `json:"reviewerId,omitempty"`
	ReviewedAt      *time.Time  `json:"reviewedAt,omitempty"`
	DecidedBy       string      `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time  `json:"decidedAt,omitempty"`
	DecisionNote    string      `json:"decisionNote,omitempty" validate:"max=1000"`
	VerificationRef string      `json:"verificationRef,omitempty" validate:"max=500"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Comment is an append-only entry attached to a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId" validate:"required"`
	AuthorID  string    `json:"authorId" validate:"required"`
	Content   string    `json:"content" validate:"required,max=1000"`
	CreatedAt time.Time `json:"createdAt"`
}
