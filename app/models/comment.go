package models

import (
	"strings"
	"time"

	"lostfound/app/apperr"
)

// NewComment trims the content; an all-whitespace comment fails validation.
func NewComment(postID, authorID, content string) *Comment {
	return &Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  strings.TrimSpace(content),
	}
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperr.Validation("comment", "invalid fields: %s", fieldErrors(err))
	}
	if c.CreatedAt.IsZero() {
		return apperr.Validation("comment", "created_at cannot be zero")
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}
