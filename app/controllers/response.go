// Package controllers adapts the services to the JSON HTTP API.
package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"lostfound/app/apperr"
	"lostfound/app/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies. The largest model field is 2000 characters.
const maxBodyBytes = 64 << 10

// responder carries the helpers shared by every controller.
type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger}
}

func (rs responder) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// sendError maps err onto an HTTP status. Unclassified failures are logged and hidden.
func (rs responder) sendError(w http.ResponseWriter, r *http.Request, err error) {
	_, authenticated := session.FromContext(r.Context())
	status := StatusFor(err, authenticated)
	message := err.Error()
	if status == http.StatusInternalServerError {
		rs.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		message = http.StatusText(status)
	}
	rs.sendJSON(w, status, map[string]string{"error": message})
}

// StatusFor returns the HTTP status for a service error. An authorization failure without a
// session is reported as 401 so the client knows to log in.
func StatusFor(err error, authenticated bool) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		if !authenticated {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object into dst. Malformed bodies are validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("decode", "request body is empty")
		}
		return apperr.Validation("decode", "invalid JSON: %v", err)
	}
	return nil
}

// principal returns the verified caller, or the zero Principal for anonymous requests.
func principal(r *http.Request) session.Principal {
	p, _ := session.FromContext(r.Context())
	return p
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// queryInt parses a positive integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation("query", "%s must be a positive integer", name)
	}
	return n, nil
}
