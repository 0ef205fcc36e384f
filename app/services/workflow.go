package services

import (
	"lostfound/app/apperr"
	"lostfound/app/models"
)

// PostEvent drives the post state machine.
type PostEvent string

const (
	PostEventFiled     PostEvent = "filed"
	PostEventApproved  PostEvent = "approved"
	PostEventRejected  PostEvent = "rejected"
	PostEventWithdrawn PostEvent = "withdrawn"
	PostEventClosed    PostEvent = "closed"
)

// ClaimAction drives the claim state machine.
type ClaimAction string

const (
	ClaimActionReview   ClaimAction = "review"
	ClaimActionWithdraw ClaimAction = "withdraw"
	ClaimActionApprove  ClaimAction = "approve"
	ClaimActionReject   ClaimAction = "reject"
)

type postEdge struct {
	from  models.PostStatus
	event PostEvent
}

type claimEdge struct {
	from   models.ClaimStatus
	action ClaimAction
}

var postTransitions = map[postEdge]models.PostStatus{
	{models.PostStatusOpen, PostEventFiled}:        models.PostStatusClaimed,
	{models.PostStatusClaimed, PostEventApproved}:  models.PostStatusVerified,
	{models.PostStatusClaimed, PostEventRejected}:  models.PostStatusOpen,
	{models.PostStatusClaimed, PostEventWithdrawn}: models.PostStatusOpen,
	{models.PostStatusOpen, PostEventClosed}:       models.PostStatusRejected,
}

var claimTransitions = map[claimEdge]models.ClaimStatus{
	{models.ClaimStatusPending, ClaimActionReview}:      models.ClaimStatusUnderReview,
	{models.ClaimStatusPending, ClaimActionWithdraw}:    models.ClaimStatusWithdrawn,
	{models.ClaimStatusUnderReview, ClaimActionApprove}: models.ClaimStatusApproved,
	{models.ClaimStatusUnderReview, ClaimActionReject}:  models.ClaimStatusRejected,
}

// NextPostStatus returns the status a post moves to on event, or ErrInvalidState.
func NextPostStatus(current models.PostStatus, event PostEvent) (models.PostStatus, error) {
	next, ok := postTransitions[postEdge{current, event}]
	if !ok {
		return "", apperr.InvalidState("post", "cannot apply %s to a %s post", event, current)
	}
	return next, nil
}

// NextClaimStatus returns the status a claim moves to on action, or ErrInvalidState.
func NextClaimStatus(current models.ClaimStatus, action ClaimAction) (models.ClaimStatus, error) {
	next, ok := claimTransitions[claimEdge{current, action}]
	if !ok {
		return "", apperr.InvalidState("claim", "cannot %s a %s claim", action, current)
	}
	return next, nil
}

// postEventFor finds the event that moves a post from one status to another.
func postEventFor(from, to models.PostStatus) (PostEvent, bool) {
	for edge, next := range postTransitions {
		if edge.from == from && next == to {
			return edge.event, true
		}
	}
	return "", false
}

// PostEvents lists every post event.
func PostEvents() []PostEvent {
	return []PostEvent{PostEventFiled, PostEventApproved, PostEventRejected, PostEventWithdrawn, PostEventClosed}
}

// ClaimActions lists every claim action.
func ClaimActions() []ClaimAction {
	return []ClaimAction{ClaimActionReview, ClaimActionWithdraw, ClaimActionApprove, ClaimActionReject}
}
