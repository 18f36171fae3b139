// Package session resolves bearer session cookies to the current student.
//
// The cookie value is a token signed by system/token carrying
// (studentID, email, issuedAt). There is no server-side session state and no
// revocation list; logout clears the cookie on the client. Cookie name,
// max-age, and the Secure flag are process-wide configuration fixed at
// startup.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/token"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultMaxAge is the session cookie lifetime when none is configured.
const DefaultMaxAge = 14 * 24 * time.Hour

// StudentResolver loads students for session resolution. Satisfied by
// studentstore.Store.
type StudentResolver interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error)
}

// UserView is the read-only identity projection injected into request
// context. It never carries the credential blob.
type UserView struct {
	ID       string
	Name     string
	Email    string
	Verified bool
}

// Manager issues, clears, and resolves session cookies.
type Manager struct {
	codec      *token.Codec
	cookieName string
	maxAge     time.Duration
	secure     bool
	students   StudentResolver
	log        *zap.Logger
}

// NewManager builds the process-wide session manager. maxAge <= 0 selects
// DefaultMaxAge.
func NewManager(secret, cookieName string, maxAge time.Duration, secure bool, students StudentResolver, logger *zap.Logger) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Manager{
		codec:      token.NewCodec(secret),
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
		students:   students,
		log:        logger,
	}
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string { return m.cookieName }

// Issue signs a fresh session token for the student and sets the cookie.
func (m *Manager) Issue(w http.ResponseWriter, student *models.Student) {
	claims := token.Claims{
		StudentID: student.ID.Hex(),
		Email:     student.Email,
		IssuedAt:  time.Now().UTC().Unix(),
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.codec.Sign(claims.Encode()),
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
}

// Clear expires the session cookie. Logout is purely client-side.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
}

// errInvalidSession is the single failure surfaced for every resolution
// problem, so callers cannot distinguish a forged token from a deleted
// account.
func errInvalidSession() error {
	return apperr.Unauthorized("invalid_session", "Invalid session.")
}

// ResolveCurrentUser maps a raw cookie value to the current user. It fails
// when the token is empty, fails verification, carries malformed claims, or
// names a student that no longer exists.
func (m *Manager) ResolveCurrentUser(ctx context.Context, tok string) (UserView, error) {
	if tok == "" {
		return UserView{}, errInvalidSession()
	}
	raw, ok := m.codec.Verify(tok)
	if !ok {
		return UserView{}, errInvalidSession()
	}
	claims, ok := token.ParseClaims(raw)
	if !ok {
		return UserView{}, errInvalidSession()
	}
	id, err := primitive.ObjectIDFromHex(claims.StudentID)
	if err != nil {
		return UserView{}, errInvalidSession()
	}
	student, err := m.students.GetByID(ctx, id)
	if err != nil {
		return UserView{}, errInvalidSession()
	}
	return UserView{
		ID:       student.ID.Hex(),
		Name:     student.Name,
		Email:    student.Email,
		Verified: student.Verified,
	}, nil
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the resolved user and a found flag.
func CurrentUser(r *http.Request) (*UserView, bool) {
	u, ok := r.Context().Value(currentUserKey).(*UserView)
	return u, ok
}

// CurrentUserID returns the current user's ObjectID. ok is false when no
// user is present or the stored id is malformed, so ok=true always means a
// valid authenticated user.
func CurrentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func withUser(r *http.Request, u *UserView) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// LoadSessionUser injects the user into context when a valid session cookie
// is present. Resolution failures are silent; gated routes use
// RequireSignedIn.
func (m *Manager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
			if u, err := m.ResolveCurrentUser(r.Context(), c.Value); err == nil {
				r = withUser(r, &u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures a user is in context (set by LoadSessionUser) and
// returns a 401 JSON error otherwise.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"not_authenticated","detail":"Not authenticated"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestUser injects a user directly into the request context, bypassing
// cookie resolution. Test helper only.
func WithTestUser(r *http.Request, u *UserView) *http.Request {
	return withUser(r, u)
}
