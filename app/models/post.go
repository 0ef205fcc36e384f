package models

import (
	"strings"
	"time"

	"lostfound/app/apperr"
)

// PostFields are the descriptive fields supplied when a post is created.
type PostFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Faculty     string `json:"faculty"`
	ImageRef    string `json:"imageRef,omitempty"`
}

// NewPost builds an Open post from trimmed fields.
func NewPost(kind PostKind, fields PostFields, authorID string) *Post {
	return &Post{
		Kind:        kind,
		Status:      PostStatusOpen,
		Title:       strings.TrimSpace(fields.Title),
		Description: strings.TrimSpace(fields.Description),
		Category:    strings.TrimSpace(fields.Category),
		Location:    strings.TrimSpace(fields.Location),
		Faculty:     strings.TrimSpace(fields.Faculty),
		ImageRef:    strings.TrimSpace(fields.ImageRef),
		AuthorID:    authorID,
	}
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperr.Validation("post", "invalid fields: %s", fieldErrors(err))
	}
	if p.CreatedAt.IsZero() {
		return apperr.Validation("post", "created_at cannot be zero")
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
}

// HasActiveClaim reports whether a claim is currently holding the post.
func (p *Post) HasActiveClaim() bool {
	return p.Status == PostStatusClaimed && p.ActiveClaimID != ""
}

// Clone returns a copy safe to mutate.
func (p *Post) Clone() *Post {
	cp := *p
	return &cp
}

// PostFilter selects posts. Empty fields match everything.
type PostFilter struct {
	Kind     PostKind
	Status   PostStatus
	Category string
	Faculty  string
	Location string
	AuthorID string
	Page     int
	PerPage  int
}

// Match applies every set predicate. Text predicates compare case-insensitively.
func (f PostFilter) Match(p *Post) bool {
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Faculty != "" && !strings.EqualFold(p.Faculty, f.Faculty) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(p.Location, f.Location) {
		return false
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	return true
}

// Window returns the page bounds for n matching posts.
func (f PostFilter) Window(n int) (start, end int) {
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	start = (page - 1) * perPage
	if start > n {
		start = n
	}
	end = start + perPage
	if end > n {
		end = n
	}
	return start, end
}
