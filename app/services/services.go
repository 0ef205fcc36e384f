// Package services implements the claim engine's operations on top of the repositories.
package services

import (
	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/repositories"
	"lostfound/app/search"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PostIndexer keeps the full-text index in step with committed posts.
type PostIndexer interface {
	IndexPost(post *models.Post) error
	Search(query string, limit int) ([]search.Hit, error)
}

// Publisher receives fire-and-forget notifications after a commit.
type Publisher interface {
	PublishAsync(eventType events.EventType, evt events.Event) bool
}

// Deps are the collaborators shared by every service. Index, Events and Registry may be nil.
type Deps struct {
	Posts         repositories.PostRepository
	Claims        repositories.ClaimRepository
	Transitions   repositories.TransitionRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Notifications repositories.NotificationRepository

	Index    PostIndexer
	Events   *events.EventBus
	Registry prometheus.Registerer
	Logger   *zap.Logger
}

// Services bundles the engine's services. They share one set of per-post locks.
type Services struct {
	Posts         *PostService
	Claims        *ClaimService
	Comments      *CommentService
	Reactions     *ReactionService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	var publisher Publisher
	if d.Events != nil {
		publisher = d.Events
	}
	locks := NewPostLocks()
	metrics := newWorkflowMetrics(d.Registry)

	s := &Services{
		Posts:     NewPostService(d.Posts, d.Index, locks, metrics, d.Logger),
		Claims:    NewClaimService(d.Posts, d.Claims, d.Transitions, d.Index, publisher, locks, metrics, d.Logger),
		Comments:  NewCommentService(d.Posts, d.Comments, publisher, d.Logger),
		Reactions: NewReactionService(d.Posts, d.Likes),
	}
	s.Notifications = NewNotificationService(d.Notifications, d.Logger)
	if d.Events != nil {
		s.Notifications.Subscribe(d.Events)
	}
	return s
}
