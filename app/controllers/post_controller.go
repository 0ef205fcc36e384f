package controllers

import (
	"net/http"

	"lostfound/app/apperr"
	"lostfound/app/models"
	"lostfound/app/services"

	"go.uber.org/zap"
)

// PostController handles HTTP requests for lost and found posts
type PostController struct {
	responder
	postService     *services.PostService
	reactionService *services.ReactionService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, reactionService *services.ReactionService, logger *zap.Logger) *PostController {
	return &PostController{
		responder:       newResponder(logger),
		postService:     postService,
		reactionService: reactionService,
	}
}

type createPostRequest struct {
	Kind models.PostKind `json:"kind"`
	models.PostFields
}

// postView is a post with its reaction summary for the caller
type postView struct {
	*models.Post
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// Index lists posts matching the query filter, newest first
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePostFilter(r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	posts, err := pc.postService.ListPosts(filter)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	pc.sendJSON(w, http.StatusOK, map[string]any{
		"posts":    posts,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// Show returns a single post with its like summary
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.GetPost(pathVar(r, "id"))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	view := postView{Post: post}
	summary, err := pc.reactionService.Summarize(principal(r), post.ID)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	view.Likes = summary.Count
	view.Liked = summary.Liked

	pc.sendJSON(w, http.StatusOK, view)
}

// Create stores a new post authored by the caller
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pc.sendError(w, r, err)
		return
	}

	post, err := pc.postService.CreatePost(principal(r), req.Kind, req.PostFields)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	pc.sendJSON(w, http.StatusCreated, post)
}

// Search runs a full-text query over post text fields
func (pc *PostController) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	posts, err := pc.postService.SearchPosts(query, limit)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	pc.sendJSON(w, http.StatusOK, map[string]any{
		"query": query,
		"posts": posts,
	})
}

// Close retires an Open post without a claim
func (pc *PostController) Close(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.ClosePost(r.Context(), principal(r), pathVar(r, "id"))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	pc.sendJSON(w, http.StatusOK, post)
}

// Like toggles the caller's like on a post
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	postID := pathVar(r, "id")
	liked, count, err := pc.reactionService.ToggleLike(principal(r), postID)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	pc.sendJSON(w, http.StatusOK, services.Summary{PostID: postID, Count: count, Liked: liked})
}

func parsePostFilter(r *http.Request) (models.PostFilter, error) {
	q := r.URL.Query()
	filter := models.PostFilter{
		Kind:     models.PostKind(q.Get("kind")),
		Status:   models.PostStatus(q.Get("status")),
		Category: q.Get("category"),
		Faculty:  q.Get("faculty"),
		Location: q.Get("location"),
		AuthorID: q.Get("author"),
	}

	switch filter.Kind {
	case "", models.PostKindLost, models.PostKindFound:
	default:
		return filter, apperr.Validation("listPosts", "unknown kind %q", filter.Kind)
	}
	switch filter.Status {
	case "", models.PostStatusOpen, models.PostStatusClaimed, models.PostStatusVerified, models.PostStatusRejected:
	default:
		return filter, apperr.Validation("listPosts", "unknown status %q", filter.Status)
	}

	var err error
	if filter.Page, err = queryInt(r, "page", 1); err != nil {
		return filter, err
	}
	if filter.PerPage, err = queryInt(r, "per_page", 20); err != nil {
		return filter, err
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return filter, nil
}
