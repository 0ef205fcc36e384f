package models

import "time"

type NotificationKind string

const (
	NotificationClaimFiled     NotificationKind = "Filed"
	NotificationClaimApproved  NotificationKind = "Approved"
	NotificationClaimRejected  NotificationKind = "Rejected"
	NotificationClaimWithdrawn NotificationKind = "Withdrawn"
	NotificationCommented      NotificationKind = "Commented"
)

// Notification is one inbox entry for a user.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	PostID      string           `json:"postId"`
	ClaimID     string           `json:"claimId,omitempty"`
	CommentID   string           `json:"commentId,omitempty"`
	Kind        NotificationKind `json:"kind"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}
