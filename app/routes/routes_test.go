package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/repositories/mock"
	"lostfound/app/search"
	"lostfound/app/services"
	"lostfound/app/session"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testApp struct {
	router *mux.Router
	issuer *session.Issuer
	svc    *services.Services
}

func setupTestRouter(t *testing.T) *testApp {
	t.Helper()
	repo := mock.New()
	index, err := search.NewMemOnly()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	bus := events.NewEventBus(reg, zap.NewNop())
	t.Cleanup(func() {
		bus.Stop()
		index.Close()
	})

	svc := services.New(services.Deps{
		Posts:         repo.Posts,
		Claims:        repo.Claims,
		Transitions:   repo.Transitions,
		Comments:      repo.Comments,
		Likes:         repo.Likes,
		Notifications: repo.Notifications,
		Index:         index,
		Events:        bus,
		Registry:      reg,
		Logger:        zap.NewNop(),
	})
	issuer, err := session.NewIssuer([]byte("routes-test-secret-0123456789"), time.Hour)
	require.NoError(t, err)

	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return &testApp{
		router: SetupRoutes(svc, issuer, zap.NewNop(), metrics),
		issuer: issuer,
		svc:    svc,
	}
}

func (a *testApp) token(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	token, err := a.issuer.Issue(userID, role)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestRouteTable(t *testing.T) {
	app := setupTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/posts"},
		{"POST", "/api/posts"},
		{"GET", "/api/posts/search"},
		{"GET", "/api/posts/p1"},
		{"POST", "/api/posts/p1/like"},
		{"POST", "/api/posts/p1/close"},
		{"GET", "/api/posts/p1/comments"},
		{"POST", "/api/posts/p1/comments"},
		{"GET", "/api/posts/p1/claims"},
		{"POST", "/api/posts/p1/claims"},
		{"GET", "/api/claims"},
		{"GET", "/api/claims/mine"},
		{"GET", "/api/claims/c1"},
		{"POST", "/api/claims/c1/withdraw"},
		{"POST", "/api/claims/c1/review"},
		{"POST", "/api/claims/c1/decision"},
		{"GET", "/api/notifications"},
		{"POST", "/api/notifications/n1/read"},
		{"GET", "/metrics"},
		{"GET", "/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			assert.True(t, app.router.Match(req, &match), "no route for %s %s", tt.method, tt.path)
			assert.NoError(t, match.MatchErr)
		})
	}
}

func TestStaticSegmentsWinOverIDs(t *testing.T) {
	app := setupTestRouter(t)
	token := app.token(t, "u1", models.RoleGeneral)

	w := app.do(t, token, "GET", "/api/claims/mine", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(t, "", "GET", "/api/posts/search?q=anything", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	app := setupTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"unknown api path", "GET", "/api/nope", http.StatusNotFound},
		{"unknown path", "GET", "/nope", http.StatusNotFound},
		{"wrong method", "DELETE", "/api/posts", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, "", tt.method, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestAuthentication(t *testing.T) {
	app := setupTestRouter(t)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"bad token", "Bearer forged", http.StatusUnauthorized},
		{"general user", "Bearer " + app.token(t, "u1", models.RoleGeneral), http.StatusForbidden},
		{"officer", "Bearer " + app.token(t, "o1", models.RoleOfficer), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/claims", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			app.router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

// TestClaimScenario drives the lost wallet story end to end over HTTP.
func TestClaimScenario(t *testing.T) {
	app := setupTestRouter(t)
	authorToken := app.token(t, "p1", models.RoleGeneral)
	u1Token := app.token(t, "u1", models.RoleGeneral)
	u2Token := app.token(t, "u2", models.RoleGeneral)
	officerToken := app.token(t, "o1", models.RoleOfficer)

	w := app.do(t, authorToken, "POST", "/api/posts", `{
		"kind": "Found",
		"title": "Brown leather wallet",
		"description": "Found under a table",
		"category": "Wallets",
		"location": "Library",
		"faculty": "Science"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))

	claimBody := `{"evidence":{"description":"Has my library card"},"contact":"me@example.edu"}`
	w = app.do(t, u1Token, "POST", "/api/posts/"+post.ID+"/claims", claimBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var claim models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &claim))

	w = app.do(t, u2Token, "POST", "/api/posts/"+post.ID+"/claims", claimBody)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, officerToken, "POST", "/api/claims/"+claim.ID+"/review", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, officerToken, "POST", "/api/claims/"+claim.ID+"/decision", `{"outcome":"Rejected","note":"Card name differs"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "", "GET", "/api/posts/"+post.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var reopened models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reopened))
	assert.Equal(t, models.PostStatusOpen, reopened.Status)

	w = app.do(t, u2Token, "POST", "/api/posts/"+post.ID+"/claims", claimBody)
	require.Equal(t, http.StatusCreated, w.Code)
	var second models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	w = app.do(t, officerToken, "POST", "/api/claims/"+second.ID+"/review", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, officerToken, "POST", "/api/claims/"+second.ID+"/decision", `{"outcome":"Approved"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, officerToken, "POST", "/api/claims/"+claim.ID+"/decision", `{"outcome":"Approved"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	require.Eventually(t, func() bool {
		w := app.do(t, authorToken, "GET", "/api/notifications", "")
		var inbox []models.Notification
		if json.Unmarshal(w.Body.Bytes(), &inbox) != nil {
			return false
		}
		return len(inbox) >= 4
	}, 2*time.Second, 10*time.Millisecond)

	w = app.do(t, "", "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lostfound_claims_filed_total 2")
}
