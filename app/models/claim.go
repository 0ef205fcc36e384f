package models

import (
	"strings"
	"time"

	"lostfound/app/apperr"
)

// NewClaim builds a Pending claim from trimmed input.
func NewClaim(postID, claimantID string, evidence Evidence, contact string) *Claim {
	return &Claim{
		PostID:     postID,
		ClaimantID: claimantID,
		Evidence: Evidence{
			Description: strings.TrimSpace(evidence.Description),
			ProofRef:    strings.TrimSpace(evidence.ProofRef),
		},
		Contact: strings.TrimSpace(contact),
		Status:  ClaimStatusPending,
	}
}

// Validate checks if the claim meets all validation requirements
func (c *Claim) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperr.Validation("claim", "invalid fields: %s", fieldErrors(err))
	}
	if c.CreatedAt.IsZero() {
		return apperr.Validation("claim", "created_at cannot be zero")
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Claim) BeforeCreate() {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

// IsActive reports whether the claim counts against the one-active-claim limit.
func (c *Claim) IsActive() bool {
	return c.Status.IsActive()
}

// Clone returns a copy safe to mutate.
func (c *Claim) Clone() *Claim {
	cp := *c
	return &cp
}

func (s ClaimStatus) IsActive() bool {
	return s == ClaimStatusPending || s == ClaimStatusUnderReview
}

func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected || s == ClaimStatusWithdrawn
}

// Decision is an officer's verdict on a claim under review.
type Decision struct {
	Outcome         ClaimStatus `json:"outcome"`
	Note            string      `json:"note,omitempty"`
	VerificationRef string      `json:"verificationRef,omitempty"`
}
