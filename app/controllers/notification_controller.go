package controllers

import (
	"net/http"

	"lostfound/app/services"

	"go.uber.org/zap"
)

// NotificationController serves the caller's inbox
type NotificationController struct {
	responder
	notificationService *services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService *services.NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		responder:           newResponder(logger),
		notificationService: notificationService,
	}
}

// Index returns the newest notifications first
func (nc *NotificationController) Index(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		nc.sendError(w, r, err)
		return
	}

	notifications, err := nc.notificationService.Inbox(principal(r), limit)
	if err != nil {
		nc.sendError(w, r, err)
		return
	}

	nc.sendJSON(w, http.StatusOK, notifications)
}

// MarkRead flags one notification as read
func (nc *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := nc.notificationService.MarkRead(principal(r), pathVar(r, "id")); err != nil {
		nc.sendError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
