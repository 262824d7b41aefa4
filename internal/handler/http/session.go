package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/repository"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
	"github.com/snapreviews/snapreviews/pkg/middleware"
)

// RoleParam is the query parameter that declares the acting role.
const RoleParam = "role"

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// RoleResolver resolves the acting role of each request from the role query
// parameter and the session, persists explicit roles to the session and
// attaches the result to the request context.
type RoleResolver struct {
	store  repository.SessionStore
	cfg    SessionConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRoleResolver creates a role resolver backed by store.
func NewRoleResolver(store repository.SessionStore, cfg SessionConfig, logger *slog.Logger) *RoleResolver {
	if cfg.CookieName == "" {
		cfg.CookieName = "snap_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &RoleResolver{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Handler is the middleware. Every request gets a session, so a cookie is
// issued even before a role is chosen. Store failures are logged and never
// fail the request: an unreadable session counts as having no stored role.
func (rr *RoleResolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, known := rr.sessionID(r)

		var (
			session    *repository.Session
			readFailed bool
		)
		if known {
			s, err := rr.store.Get(ctx, id)
			switch {
			case err == nil:
				session = s
			case errors.Is(err, apperrors.ErrNotFound):
			default:
				readFailed = true
				rr.logger.WarnContext(ctx, "session lookup failed",
					slog.String("error", err.Error()),
				)
			}
		}

		stored := ""
		if session != nil {
			stored = session.Role
		}
		role, persist := domain.ResolveRole(r.URL.Query().Get(RoleParam), stored)

		if session == nil {
			session = &repository.Session{CreatedAt: rr.now().UTC()}
		}
		if persist {
			session.Role = string(role)
		}

		// A failed read must not overwrite a stored role with an empty one.
		if !readFailed || persist {
			if err := rr.store.Save(ctx, id, session); err != nil {
				rr.logger.WarnContext(ctx, "session save failed",
					slog.String("error", err.Error()),
				)
			} else {
				http.SetCookie(w, rr.cookie(id))
			}
		}

		ctx = middleware.WithRole(ctx, string(role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the id from the session cookie, or a fresh one when the
// cookie is missing or malformed.
func (rr *RoleResolver) sessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(rr.cfg.CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, true
		}
	}
	return uuid.NewString(), false
}

func (rr *RoleResolver) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     rr.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(rr.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   rr.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// roleFrom returns the role the resolver attached to r.
func roleFrom(r *http.Request) domain.Role {
	if role := middleware.RoleFromContext(r.Context()); role != "" {
		return domain.Role(role)
	}
	return domain.DefaultRole
}
