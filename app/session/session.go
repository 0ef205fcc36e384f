// Package session issues and verifies the signed tokens that carry a caller's identity and role.
package session

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"golang.org/x/crypto/sha3"
)

// Principal is the authenticated caller of a single operation.
type Principal struct {
	UserID string      `json:"sub"`
	Role   models.Role `json:"role"`
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

type claims struct {
	Principal
	ExpiresAt int64 `json:"exp"`
}

// Issuer signs tokens with HMAC-SHA3-256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("session secret must be at least 16 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Issuer{secret: bytes.Clone(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a token for userID acting as role.
func (i *Issuer) Issue(userID string, role models.Role) (string, error) {
	if userID == "" {
		return "", apperr.Validation("issue", "user id is required")
	}
	if role != models.RoleGeneral && role != models.RoleOfficer {
		return "", apperr.Validation("issue", "unknown role %q", role)
	}
	payload, err := json.Marshal(claims{
		Principal: Principal{UserID: userID, Role: role},
		ExpiresAt: i.now().Add(i.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session claims: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + base64.RawURLEncoding.EncodeToString(i.sign(body)), nil
}

// Verify checks the signature and expiry and returns the embedded principal.
func (i *Issuer) Verify(token string) (Principal, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Principal{}, apperr.Authorization("verify", "malformed token")
	}
	gotSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return Principal{}, apperr.Authorization("verify", "malformed signature")
	}
	if !hmac.Equal(gotSig, i.sign(body)) {
		return Principal{}, apperr.Authorization("verify", "bad signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Principal{}, apperr.Authorization("verify", "malformed payload")
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Principal{}, apperr.Authorization("verify", "malformed payload")
	}
	if i.now().Unix() >= c.ExpiresAt {
		return Principal{}, apperr.Authorization("verify", "token expired")
	}
	if !c.Authenticated() {
		return Principal{}, apperr.Authorization("verify", "token has no subject")
	}
	return c.Principal, nil
}

func (i *Issuer) sign(body string) []byte {
	mac := hmac.New(sha3.New256, i.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}

type ctxKey struct{}

// WithPrincipal stores p in ctx for the duration of one request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
