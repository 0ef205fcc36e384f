package controllers

import (
	"net/http"

	"lostfound/app/services"

	"go.uber.org/zap"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	responder
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, logger *zap.Logger) *CommentController {
	return &CommentController{
		responder:      newResponder(logger),
		commentService: commentService,
	}
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// Index lists a post's comments oldest first
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	comments, err := cc.commentService.ListComments(pathVar(r, "id"))
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusOK, comments)
}

// Create appends a comment by the caller
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		cc.sendError(w, r, err)
		return
	}

	comment, err := cc.commentService.AddComment(principal(r), pathVar(r, "id"), req.Content)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	cc.sendJSON(w, http.StatusCreated, comment)
}
