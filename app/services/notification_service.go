package services

import (
	"slices"

	"lostfound/app/apperr"
	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/repositories"
	"lostfound/app/session"

	"go.uber.org/zap"
)

const defaultInboxLimit = 50

// NotificationService turns workflow events into per-user inbox entries. Delivery is best
// effort: a failed write is logged and the event is dropped.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repositories.NotificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Subscribe registers the service for every event type the engine publishes
func (s *NotificationService) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.AllTypes() {
		bus.SubscribeFunc(eventType, s.Handle)
	}
}

// Handle writes inbox entries for one event
func (s *NotificationService) Handle(evt events.Event) {
	for _, n := range notificationsFor(evt) {
		if err := s.notificationRepo.Create(n); err != nil {
			s.logger.Warn("failed to store notification",
				zap.String("type", string(evt.Type)),
				zap.String("recipient_id", n.RecipientID),
				zap.Error(err))
		}
	}
}

func notificationsFor(evt events.Event) []*models.Notification {
	var kind models.NotificationKind
	var recipients []string
	var postID, claimID, commentID, actorID string

	switch data := evt.Data.(type) {
	case events.ClaimEvent:
		postID, claimID, actorID = data.PostID, data.ClaimID, data.ActorID
		switch evt.Type {
		case events.ClaimFiledEventType:
			kind, recipients = models.NotificationClaimFiled, []string{data.PostAuthor}
		case events.ClaimWithdrawnEventType:
			kind, recipients = models.NotificationClaimWithdrawn, []string{data.PostAuthor}
		case events.ClaimApprovedEventType:
			kind, recipients = models.NotificationClaimApproved, []string{data.ClaimantID, data.PostAuthor}
		case events.ClaimRejectedEventType:
			kind, recipients = models.NotificationClaimRejected, []string{data.ClaimantID, data.PostAuthor}
		default:
			return nil
		}
	case events.CommentEvent:
		postID, commentID, actorID = data.PostID, data.CommentID, data.AuthorID
		kind, recipients = models.NotificationCommented, []string{data.PostAuthor}
	default:
		return nil
	}

	createdAt := evt.Timestamp.UTC()
	var out []*models.Notification
	var seen []string
	for _, r := range recipients {
		if r == "" || r == actorID || slices.Contains(seen, r) {
			continue
		}
		seen = append(seen, r)
		out = append(out, &models.Notification{
			RecipientID: r,
			PostID:      postID,
			ClaimID:     claimID,
			CommentID:   commentID,
			Kind:        kind,
			CreatedAt:   createdAt,
		})
	}
	return out
}

// Inbox returns the principal's most recent notifications, newest first
func (s *NotificationService) Inbox(p session.Principal, limit int) ([]*models.Notification, error) {
	if !p.Authenticated() {
		return nil, apperr.Authorization("inbox", "authentication required")
	}
	if limit <= 0 || limit > defaultInboxLimit {
		limit = defaultInboxLimit
	}
	notifications, err := s.notificationRepo.ListByRecipient(p.UserID, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

// MarkRead flags one of the principal's notifications as read
func (s *NotificationService) MarkRead(p session.Principal, id string) error {
	if !p.Authenticated() {
		return apperr.Authorization("markRead", "authentication required")
	}
	return s.notificationRepo.MarkRead(p.UserID, id)
}
