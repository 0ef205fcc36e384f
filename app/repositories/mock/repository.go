// Package mock provides in-memory repositories sharing one lock, for service and controller tests.
package mock

import (
	"slices"
	"sort"
	"sync"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"
	"lostfound/app/repositories"

	"github.com/google/uuid"
)

type state struct {
	mutex         sync.RWMutex
	posts         map[string]*models.Post
	claims        map[string]*models.Claim
	comments      map[string][]*models.Comment
	likes         map[string]map[string]bool
	notifications map[string][]*models.Notification
	lastComment   time.Time
}

// Repository bundles the in-memory repositories.
type Repository struct {
	Posts         *PostRepository
	Claims        *ClaimRepository
	Transitions   *TransitionRepository
	Comments      *CommentRepository
	Likes         *LikeRepository
	Notifications *NotificationRepository
}

type PostRepository struct{ s *state }
type ClaimRepository struct{ s *state }
type TransitionRepository struct{ s *state }
type CommentRepository struct{ s *state }
type LikeRepository struct{ s *state }
type NotificationRepository struct{ s *state }

func New() *Repository {
	s := &state{
		posts:         make(map[string]*models.Post),
		claims:        make(map[string]*models.Claim),
		comments:      make(map[string][]*models.Comment),
		likes:         make(map[string]map[string]bool),
		notifications: make(map[string][]*models.Notification),
	}
	return &Repository{
		Posts:         &PostRepository{s},
		Claims:        &ClaimRepository{s},
		Transitions:   &TransitionRepository{s},
		Comments:      &CommentRepository{s},
		Likes:         &LikeRepository{s},
		Notifications: &NotificationRepository{s},
	}
}

// PostRepository implementation
func (m *PostRepository) Create(post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if _, exists := m.s.posts[post.ID]; exists {
		return apperr.Conflict("createPost", "post %s already exists", post.ID)
	}
	m.s.posts[post.ID] = post.Clone()
	return nil
}

func (m *PostRepository) GetByID(id string) (*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	post, exists := m.s.posts[id]
	if !exists {
		return nil, apperr.NotFound("get", "post %s not found", id)
	}
	return post.Clone(), nil
}

func (m *PostRepository) List(filter models.PostFilter) ([]*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var posts []*models.Post
	for _, post := range m.s.posts {
		if filter.Match(post) {
			posts = append(posts, post.Clone())
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	start, end := filter.Window(len(posts))
	return posts[start:end], nil
}

func (m *PostRepository) TransitionStatus(id string, next, expected models.PostStatus) (*models.Post, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	post, exists := m.s.posts[id]
	if !exists {
		return nil, apperr.NotFound("get", "post %s not found", id)
	}
	if post.Status != expected {
		return nil, apperr.Conflict("transitionStatus", "post %s is %s, expected %s", id, post.Status, expected)
	}
	post.Status = next
	post.UpdatedAt = time.Now().UTC()
	return post.Clone(), nil
}

// ClaimRepository implementation
func (m *ClaimRepository) GetByID(id string) (*models.Claim, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	claim, exists := m.s.claims[id]
	if !exists {
		return nil, apperr.NotFound("get", "claim %s not found", id)
	}
	return claim.Clone(), nil
}

func (m *ClaimRepository) ListByPost(postID string) ([]*models.Claim, error) {
	return m.filter(func(c *models.Claim) bool { return c.PostID == postID }), nil
}

func (m *ClaimRepository) ListByStatus(statuses ...models.ClaimStatus) ([]*models.Claim, error) {
	return m.filter(func(c *models.Claim) bool { return slices.Contains(statuses, c.Status) }), nil
}

func (m *ClaimRepository) ListByClaimant(claimantID string) ([]*models.Claim, error) {
	return m.filter(func(c *models.Claim) bool { return c.ClaimantID == claimantID }), nil
}

func (m *ClaimRepository) filter(keep func(*models.Claim) bool) []*models.Claim {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var claims []*models.Claim
	for _, claim := range m.s.claims {
		if keep(claim) {
			claims = append(claims, claim.Clone())
		}
	}
	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return claims[i].ID < claims[j].ID
		}
		return claims[i].CreatedAt.Before(claims[j].CreatedAt)
	})
	return claims
}

// TransitionRepository implementation
func (m *TransitionRepository) Commit(change repositories.Change) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if change.Post != nil {
		stored, exists := m.s.posts[change.Post.ID]
		if !exists {
			return apperr.NotFound("get", "post %s not found", change.Post.ID)
		}
		if stored.Status != change.ExpectedPost {
			return apperr.Conflict("commit", "post %s is %s, expected %s", stored.ID, stored.Status, change.ExpectedPost)
		}
	}
	for _, w := range change.Claims {
		stored, exists := m.s.claims[w.Claim.ID]
		if w.Expected == "" {
			if exists {
				return apperr.Conflict("commit", "claim %s already exists", w.Claim.ID)
			}
			continue
		}
		if !exists {
			return apperr.NotFound("get", "claim %s not found", w.Claim.ID)
		}
		if stored.Status != w.Expected {
			return apperr.Conflict("commit", "claim %s is %s, expected %s", stored.ID, stored.Status, w.Expected)
		}
	}

	if change.Post != nil {
		m.s.posts[change.Post.ID] = change.Post.Clone()
	}
	for _, w := range change.Claims {
		m.s.claims[w.Claim.ID] = w.Claim.Clone()
	}
	return nil
}

// CommentRepository implementation
func (m *CommentRepository) Create(comment *models.Comment) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if !now.After(m.s.lastComment) {
		now = m.s.lastComment.Add(time.Microsecond)
	}
	m.s.lastComment = now
	comment.CreatedAt = now
	stored := *comment
	m.s.comments[comment.PostID] = append(m.s.comments[comment.PostID], &stored)
	return nil
}

func (m *CommentRepository) Each(postID string, fn func(*models.Comment) bool) error {
	m.s.mutex.RLock()
	snapshot := slices.Clone(m.s.comments[postID])
	m.s.mutex.RUnlock()

	for _, comment := range snapshot {
		cp := *comment
		if !fn(&cp) {
			return nil
		}
	}
	return nil
}

// LikeRepository implementation
func (m *LikeRepository) Toggle(postID, userID string) (bool, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	users, ok := m.s.likes[postID]
	if !ok {
		users = make(map[string]bool)
		m.s.likes[postID] = users
	}
	if users[userID] {
		delete(users, userID)
		return false, nil
	}
	users[userID] = true
	return true, nil
}

func (m *LikeRepository) Has(postID, userID string) (bool, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return m.s.likes[postID][userID], nil
}

func (m *LikeRepository) Count(postID string) (int, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return len(m.s.likes[postID]), nil
}

// NotificationRepository implementation
func (m *NotificationRepository) Create(n *models.Notification) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	stored := *n
	m.s.notifications[n.RecipientID] = append(m.s.notifications[n.RecipientID], &stored)
	return nil
}

func (m *NotificationRepository) ListByRecipient(recipientID string, limit int) ([]*models.Notification, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	inbox := m.s.notifications[recipientID]
	var out []*models.Notification
	for i := len(inbox) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *inbox[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *NotificationRepository) MarkRead(recipientID, id string) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	for _, n := range m.s.notifications[recipientID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return apperr.NotFound("markRead", "notification %s not found", id)
}
