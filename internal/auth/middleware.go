package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Middleware authenticates bearer tokens and enforces the role policy.
type Middleware struct {
	secret []byte
	policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{secret: secret, policy: policy}
}

// Wrap applies authentication and the role policy to next. The caller's role
// and subject are stored in the request context for audit entries.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		role, subject, err := m.authorize(r, required)
		if err != nil {
			deny(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), role, subject)))
	})
}

func (m *Middleware) authorize(r *http.Request, required Role) (Role, string, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return "", "", ErrUnauthorized
	}
	claims, err := ParseJWT(token, m.secret)
	if err != nil {
		return "", "", err
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !role.Covers(required) {
		return "", "", fmt.Errorf("%w: %s needs %s", ErrForbidden, role, required)
	}
	return role, claims.Subject, nil
}

// deny answers with the same error body as the API handlers.
func deny(w http.ResponseWriter, err error) {
	status, message := http.StatusUnauthorized, "unauthorized"
	if errors.Is(err, ErrForbidden) {
		status, message = http.StatusForbidden, "forbidden"
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="synapse"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
