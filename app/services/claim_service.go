package services

import (
	"context"
	"errors"
	"fmt"

	"lostfound/app/apperr"
	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/policy"
	"lostfound/app/repositories"
	"lostfound/app/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimService runs the verification workflow. Every operation that changes a claim holds the
// post's lock while it re-reads state and commits the post and claim together. Events, index
// updates and metrics happen after the lock is released.
type ClaimService struct {
	postRepo       repositories.PostRepository
	claimRepo      repositories.ClaimRepository
	transitionRepo repositories.TransitionRepository
	index          PostIndexer
	publisher      Publisher
	locks          *PostLocks
	metrics        *workflowMetrics
	logger         *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	postRepo repositories.PostRepository,
	claimRepo repositories.ClaimRepository,
	transitionRepo repositories.TransitionRepository,
	index PostIndexer,
	publisher Publisher,
	locks *PostLocks,
	metrics *workflowMetrics,
	logger *zap.Logger,
) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		postRepo:       postRepo,
		claimRepo:      claimRepo,
		transitionRepo: transitionRepo,
		index:          index,
		publisher:      publisher,
		locks:          locks,
		metrics:        metrics,
		logger:         logger,
	}
}

// FileClaim admits a Pending claim and moves the post to Claimed. At most one claim per post is
// active; losers of a race get ErrConflict and leave no record behind.
func (s *ClaimService) FileClaim(ctx context.Context, p session.Principal, postID string, evidence models.Evidence, contact string) (*models.Claim, error) {
	const op = "fileClaim"
	if err := authorize(p, policy.ActionFileClaim, op); err != nil {
		return nil, err
	}

	claim := models.NewClaim(postID, p.UserID, evidence, contact)
	claim.BeforeCreate()
	if err := claim.Validate(); err != nil {
		return nil, err
	}
	claim.ID = uuid.NewString()

	unlock, err := s.locks.Lock(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock post %s: %w", postID, err)
	}
	post, err := s.fileLocked(op, claim)
	unlock()
	if err != nil {
		s.recordConflict(op, err)
		return nil, err
	}

	s.metrics.claimFiled()
	reindexPost(s.index, s.logger, post)
	s.publish(events.ClaimFiledEventType, post, claim, p.UserID)
	s.logger.Info("claim filed",
		zap.String("claim_id", claim.ID),
		zap.String("post_id", postID),
		zap.String("claimant_id", p.UserID))
	return claim, nil
}

func (s *ClaimService) fileLocked(op string, claim *models.Claim) (*models.Post, error) {
	post, err := s.postRepo.GetByID(claim.PostID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusClaimed {
		return nil, apperr.Conflict(op, "post %s already has an active claim", post.ID)
	}
	nextStatus, err := NextPostStatus(post.Status, PostEventFiled)
	if err != nil {
		return nil, err
	}

	next := post.Clone()
	next.Status = nextStatus
	next.ActiveClaimID = claim.ID
	next.UpdatedAt = now()
	err = s.transitionRepo.Commit(repositories.Change{
		Post:         next,
		ExpectedPost: post.Status,
		Claims:       []repositories.ClaimWrite{{Claim: claim}},
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// WithdrawClaim lets the claimant retract a Pending claim. The post returns to Open.
func (s *ClaimService) WithdrawClaim(ctx context.Context, p session.Principal, claimID string) error {
	const op = "withdrawClaim"
	if err := authorize(p, policy.ActionWithdrawClaim, op); err != nil {
		return err
	}

	claim, post, err := s.update(ctx, op, claimID, func(claim *models.Claim, post *models.Post) error {
		if claim.ClaimantID != p.UserID {
			return apperr.Authorization(op, "only the claimant may withdraw claim %s", claim.ID)
		}
		status, err := NextClaimStatus(claim.Status, ClaimActionWithdraw)
		if err != nil {
			return err
		}
		claim.Status = status
		return releasePost(post, claim.ID, PostEventWithdrawn)
	})
	if err != nil {
		return err
	}

	s.metrics.claimWithdrawn()
	reindexPost(s.index, s.logger, post)
	s.publish(events.ClaimWithdrawnEventType, post, claim, p.UserID)
	s.logger.Info("claim withdrawn", zap.String("claim_id", claimID), zap.String("post_id", claim.PostID))
	return nil
}

// OpenForReview moves a Pending claim to UnderReview. Officers only.
func (s *ClaimService) OpenForReview(ctx context.Context, p session.Principal, claimID string) (*models.Claim, error) {
	const op = "openForReview"
	if err := authorize(p, policy.ActionOpenForReview, op); err != nil {
		return nil, err
	}

	claim, _, err := s.update(ctx, op, claimID, func(claim *models.Claim, _ *models.Post) error {
		status, err := NextClaimStatus(claim.Status, ClaimActionReview)
		if err != nil {
			return err
		}
		reviewedAt := now()
		claim.Status = status
		claim.ReviewerID = p.UserID
		claim.ReviewedAt = &reviewedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.claimReviewed()
	s.logger.Info("claim opened for review", zap.String("claim_id", claimID), zap.String("officer_id", p.UserID))
	return claim, nil
}

// Decide approves or rejects a claim under review. Approval verifies the post; rejection
// reopens it. Officers only.
func (s *ClaimService) Decide(ctx context.Context, p session.Principal, claimID string, decision models.Decision) (*models.Claim, error) {
	const op = "decide"
	if err := authorize(p, policy.ActionDecide, op); err != nil {
		return nil, err
	}

	var action ClaimAction
	var postEvent PostEvent
	switch decision.Outcome {
	case models.ClaimStatusApproved:
		action, postEvent = ClaimActionApprove, PostEventApproved
	case models.ClaimStatusRejected:
		action, postEvent = ClaimActionReject, PostEventRejected
	default:
		return nil, apperr.Validation(op, "outcome must be Approved or Rejected, got %q", decision.Outcome)
	}

	claim, post, err := s.update(ctx, op, claimID, func(claim *models.Claim, post *models.Post) error {
		status, err := NextClaimStatus(claim.Status, action)
		if err != nil {
			return err
		}
		decidedAt := now()
		claim.Status = status
		claim.DecidedBy = p.UserID
		claim.DecidedAt = &decidedAt
		claim.DecisionNote = decision.Note
		claim.VerificationRef = decision.VerificationRef
		if err := claim.Validate(); err != nil {
			return err
		}
		return releasePost(post, claim.ID, postEvent)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.claimDecided(string(claim.Status))
	reindexPost(s.index, s.logger, post)
	eventType := events.ClaimRejectedEventType
	if claim.Status == models.ClaimStatusApproved {
		eventType = events.ClaimApprovedEventType
	}
	s.publish(eventType, post, claim, p.UserID)
	s.logger.Info("claim decided",
		zap.String("claim_id", claimID),
		zap.String("outcome", string(claim.Status)),
		zap.String("officer_id", p.UserID))
	return claim, nil
}

// releasePost applies a claim-driven event to the post if the claim is the post's active one.
// Approval keeps ActiveClaimID as a pointer to the winning claim.
func releasePost(post *models.Post, claimID string, event PostEvent) error {
	if post.ActiveClaimID != claimID {
		return nil
	}
	status, err := NextPostStatus(post.Status, event)
	if err != nil {
		return err
	}
	post.Status = status
	post.UpdatedAt = now()
	if status == models.PostStatusOpen {
		post.ActiveClaimID = ""
	}
	return nil
}

// update locks the claim's post, re-reads both records, lets mutate change copies of them and
// commits the result with the re-read statuses as expectations. The post is only written when
// mutate changed its status.
func (s *ClaimService) update(ctx context.Context, op, claimID string, mutate func(claim *models.Claim, post *models.Post) error) (*models.Claim, *models.Post, error) {
	current, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := s.locks.Lock(ctx, current.PostID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock post %s: %w", current.PostID, err)
	}
	claim, post, err := s.updateLocked(claimID, mutate)
	unlock()
	if err != nil {
		s.recordConflict(op, err)
		return nil, nil, err
	}
	return claim, post, nil
}

func (s *ClaimService) updateLocked(claimID string, mutate func(claim *models.Claim, post *models.Post) error) (*models.Claim, *models.Post, error) {
	stored, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, nil, err
	}
	storedPost, err := s.postRepo.GetByID(stored.PostID)
	if err != nil {
		return nil, nil, err
	}

	claim := stored.Clone()
	post := storedPost.Clone()
	if err := mutate(claim, post); err != nil {
		return nil, nil, err
	}

	change := repositories.Change{
		Claims: []repositories.ClaimWrite{{Claim: claim, Expected: stored.Status}},
	}
	if post.Status != storedPost.Status {
		change.Post = post
		change.ExpectedPost = storedPost.Status
	}
	if err := s.transitionRepo.Commit(change); err != nil {
		return nil, nil, err
	}
	return claim, post, nil
}

// GetClaim returns a claim to its claimant, the post author or an officer
func (s *ClaimService) GetClaim(p session.Principal, claimID string) (*models.Claim, error) {
	const op = "getClaim"
	if !p.Authenticated() {
		return nil, apperr.Authorization(op, "authentication required")
	}
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim.ClaimantID == p.UserID || policy.CanPerform(p.Role, policy.ActionViewReviewQueue) {
		return claim, nil
	}
	post, err := s.postRepo.GetByID(claim.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != p.UserID {
		return nil, apperr.Authorization(op, "claim %s is not visible to %s", claimID, p.UserID)
	}
	return claim, nil
}

// ListPostClaims returns the full claim history of a post, oldest first. Visible to the post
// author and officers.
func (s *ClaimService) ListPostClaims(p session.Principal, postID string) ([]*models.Claim, error) {
	const op = "listPostClaims"
	if !p.Authenticated() {
		return nil, apperr.Authorization(op, "authentication required")
	}
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != p.UserID && !policy.CanPerform(p.Role, policy.ActionViewReviewQueue) {
		return nil, apperr.Authorization(op, "claims on post %s are not visible to %s", postID, p.UserID)
	}
	return s.claimRepo.ListByPost(postID)
}

// ReviewQueue lists active claims awaiting an officer, oldest first. An empty status means
// both Pending and UnderReview.
func (s *ClaimService) ReviewQueue(p session.Principal, status models.ClaimStatus) ([]*models.Claim, error) {
	const op = "reviewQueue"
	if err := authorize(p, policy.ActionViewReviewQueue, op); err != nil {
		return nil, err
	}
	switch status {
	case "":
		return s.claimRepo.ListByStatus(models.ClaimStatusPending, models.ClaimStatusUnderReview)
	case models.ClaimStatusPending, models.ClaimStatusUnderReview:
		return s.claimRepo.ListByStatus(status)
	default:
		return nil, apperr.Validation(op, "review queue holds Pending or UnderReview claims, not %q", status)
	}
}

// ListMyClaims returns the principal's own claims, oldest first
func (s *ClaimService) ListMyClaims(p session.Principal) ([]*models.Claim, error) {
	if !p.Authenticated() {
		return nil, apperr.Authorization("listMyClaims", "authentication required")
	}
	return s.claimRepo.ListByClaimant(p.UserID)
}

func (s *ClaimService) recordConflict(op string, err error) {
	if errors.Is(err, apperr.ErrConflict) {
		s.metrics.conflict(op)
		s.logger.Debug("workflow conflict", zap.String("op", op), zap.Error(err))
	}
}

func (s *ClaimService) publish(eventType events.EventType, post *models.Post, claim *models.Claim, actorID string) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(eventType, events.NewEvent(eventType, events.ClaimEvent{
		PostID:     claim.PostID,
		ClaimID:    claim.ID,
		ClaimantID: claim.ClaimantID,
		PostAuthor: post.AuthorID,
		ActorID:    actorID,
	}))
}
