// Package routes wires the controllers and middleware into the HTTP router.
package routes

import (
	"encoding/json"
	"net/http"

	"lostfound/app/controllers"
	"lostfound/app/middleware"
	"lostfound/app/services"
	"lostfound/app/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetupRoutes defines the application's routes and returns a router. metrics may be nil.
func SetupRoutes(svc *services.Services, issuer *session.Issuer, logger *zap.Logger, metrics http.Handler) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))

	router.NotFoundHandler = jsonStatus(http.StatusNotFound)
	router.MethodNotAllowedHandler = jsonStatus(http.StatusMethodNotAllowed)

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	postController := controllers.NewPostController(svc.Posts, svc.Reactions, logger)
	commentController := controllers.NewCommentController(svc.Comments, logger)
	claimController := controllers.NewClaimController(svc.Claims, logger)
	notificationController := controllers.NewNotificationController(svc.Notifications, logger)

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.Authenticate(issuer))

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/search", postController.Search).Methods("GET")
	posts.HandleFunc("/{id}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id}/like", postController.Like).Methods("POST")
	posts.HandleFunc("/{id}/close", postController.Close).Methods("POST")

	// Comments API endpoints
	posts.HandleFunc("/{id}/comments", commentController.Index).Methods("GET")
	posts.HandleFunc("/{id}/comments", commentController.Create).Methods("POST")

	// Claims API endpoints
	posts.HandleFunc("/{id}/claims", claimController.IndexForPost).Methods("GET")
	posts.HandleFunc("/{id}/claims", claimController.Create).Methods("POST")
	claims := api.PathPrefix("/claims").Subrouter()
	claims.HandleFunc("", claimController.Queue).Methods("GET")
	claims.HandleFunc("/mine", claimController.Mine).Methods("GET")
	claims.HandleFunc("/{id}", claimController.Show).Methods("GET")
	claims.HandleFunc("/{id}/withdraw", claimController.Withdraw).Methods("POST")
	claims.HandleFunc("/{id}/review", claimController.Review).Methods("POST")
	claims.HandleFunc("/{id}/decision", claimController.Decide).Methods("POST")

	// Notifications API endpoints
	api.HandleFunc("/notifications", notificationController.Index).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notificationController.MarkRead).Methods("POST")

	return router
}

func jsonStatus(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
	})
}
