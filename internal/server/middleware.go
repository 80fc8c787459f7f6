package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/auth"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	recorderKey
)

// actorRecorder lets the outer audit middleware learn who was
// authenticated further down the chain.
type actorRecorder struct {
	actor workflow.Actor
	set   bool
}

func withActorRecorder(ctx context.Context, rec *actorRecorder) context.Context {
	return context.WithValue(ctx, recorderKey, rec)
}

func withActor(ctx context.Context, a workflow.Actor) context.Context {
	if rec, ok := ctx.Value(recorderKey).(*actorRecorder); ok {
		rec.actor, rec.set = a, true
	}
	return context.WithValue(ctx, actorKey, a)
}

func actorFrom(ctx context.Context) (workflow.Actor, bool) {
	a, ok := ctx.Value(actorKey).(workflow.Actor)
	return a, ok
}

// authMiddleware accepts a bearer token or Basic credentials and stores the
// resolved actor in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authenticate(r)
		if err != nil {
			if !errors.Is(err, errNoCredentials) && !errors.Is(err, auth.ErrInvalidToken) {
				s.logger.Warn("authentication failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
			respondError(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		actor := actorFromUser(user, r)
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

var errNoCredentials = errors.New("no credentials")

func (s *Server) authenticate(r *http.Request) (*repository.User, error) {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		id, err := s.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		user, err := s.userRepo.GetByID(r.Context(), id.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return nil, auth.ErrInvalidToken
			}
			return nil, err
		}
		return user, nil
	}

	email, password, ok := r.BasicAuth()
	if !ok {
		return nil, errNoCredentials
	}
	user, err := s.userRepo.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return nil, errNoCredentials
		}
		return nil, err
	}
	return user, nil
}

// requireRole rejects authenticated callers whose role does not match.
func requireRole(role workflow.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}
			if actor.Role != role {
				respondError(w, http.StatusForbidden, "You are not allowed to access this resource.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorFromUser(u *repository.User, r *http.Request) workflow.Actor {
	return workflow.Actor{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      workflow.Role(u.Role),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
