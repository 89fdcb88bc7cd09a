package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

// SessionCookieName is the cookie the web client keeps its access token in.
const SessionCookieName = "sb-access-token"

type ctxKey int

const actorKey ctxKey = iota

type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (usecase.Actor, error)
}

type AdminChecker interface {
	RequireAdmin(ctx context.Context, actor usecase.Actor) error
}

// SessionAuth validates the HS256 access token issued by the auth server and
// puts the resolved actor in the request context.
type SessionAuth struct {
	Secret   []byte
	Resolver ActorResolver
}

func NewSessionAuth(secret string, resolver ActorResolver) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), Resolver: resolver}
}

func (s *SessionAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := AccessTokenFromRequest(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "missing session")
			return
		}

		userID, err := s.subject(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid session")
			return
		}

		actor, err := s.Resolver.ResolveActor(r.Context(), userID)
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (s *SessionAuth) subject(raw string) (string, error) {
	claims := jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token without subject")
	}
	return claims.Subject, nil
}

// RequireAdmin must run after SessionAuth.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "missing session")
				return
			}
			if err := checker.RequireAdmin(r.Context(), actor); err != nil {
				writeUsecaseError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessTokenFromRequest reads a Bearer header first, then the session cookie.
func AccessTokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func WithActor(ctx context.Context, actor usecase.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (usecase.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(usecase.Actor)
	return actor, ok
}

func writeUsecaseError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status := http.StatusForbidden
		if de.Code == usecase.CodeUnauthorized {
			status = http.StatusUnauthorized
		}
		writeError(w, status, de.Code, de.Message)
		return
	}
	log.Printf("❌ Auth middleware: %v", err)
	writeError(w, http.StatusInternalServerError, usecase.CodeBackend, "internal error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
