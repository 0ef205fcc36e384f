package controllers

import (
	"net/http"

	"lostfound/app/models"
	"lostfound/app/services"

	"go.uber.org/zap"
)

// ClaimController handles HTTP requests for ownership claims and their review
type ClaimController struct {
	responder
	claimService *services.ClaimService
}

// NewClaimController creates a new ClaimController
func NewClaimController(claimService *services.ClaimService, logger *zap.Logger) *ClaimController {
	return &ClaimController{
		responder:    newResponder(logger),
		claimService: claimService,
	}
}

type fileClaimRequest struct {
	Evidence models.Evidence `json:"evidence"`
	Contact  string          `json:"contact"`
}

// Create files a claim on the post in the path
func (cc *ClaimController) Create(w http.ResponseWriter, r *http.Request) {
	var req fileClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		cc.sendError(w, r, err)
		return
	}

	claim, err := cc.claimService.FileClaim(r.Context(), principal(r), pathVar(r, "id"), req.Evidence, req.Contact)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusCreated, claim)
}

// IndexForPost lists every claim filed on a post
func (cc *ClaimController) IndexForPost(w http.ResponseWriter, r *http.Request) {
	claims, err := cc.claimService.ListPostClaims(principal(r), pathVar(r, "id"))
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, orEmpty(claims))
}

// Queue lists claims awaiting an officer. ?status= narrows it to Pending or UnderReview.
func (cc *ClaimController) Queue(w http.ResponseWriter, r *http.Request) {
	status := models.ClaimStatus(r.URL.Query().Get("status"))
	claims, err := cc.claimService.ReviewQueue(principal(r), status)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, orEmpty(claims))
}

// Mine lists the caller's own claims
func (cc *ClaimController) Mine(w http.ResponseWriter, r *http.Request) {
	claims, err := cc.claimService.ListMyClaims(principal(r))
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, orEmpty(claims))
}

// Show returns one claim
func (cc *ClaimController) Show(w http.ResponseWriter, r *http.Request) {
	claim, err := cc.claimService.GetClaim(principal(r), pathVar(r, "id"))
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, claim)
}

// Withdraw lets the claimant retract an active claim
func (cc *ClaimController) Withdraw(w http.ResponseWriter, r *http.Request) {
	if err := cc.claimService.WithdrawClaim(r.Context(), principal(r), pathVar(r, "id")); err != nil {
		cc.sendError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Review moves a Pending claim under officer review
func (cc *ClaimController) Review(w http.ResponseWriter, r *http.Request) {
	claim, err := cc.claimService.OpenForReview(r.Context(), principal(r), pathVar(r, "id"))
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, claim)
}

// Decide records an officer's approval or rejection
func (cc *ClaimController) Decide(w http.ResponseWriter, r *http.Request) {
	var decision models.Decision
	if err := decodeJSON(w, r, &decision); err != nil {
		cc.sendError(w, r, err)
		return
	}

	claim, err := cc.claimService.Decide(r.Context(), principal(r), pathVar(r, "id"), decision)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, claim)
}

func orEmpty(claims []*models.Claim) []*models.Claim {
	if claims == nil {
		return []*models.Claim{}
	}
	return claims
}
