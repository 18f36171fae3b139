// internal/app/features/auth/handler.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/httpjson"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/token"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// verifyClaimPrefix keeps verification tokens from ever parsing as session
// claims; the two formats share a signing secret but not a shape.
const verifyClaimPrefix = "verify"

// Handler serves account registration and session endpoints.
type Handler struct {
	Students    *studentstore.Store
	Sessions    *session.Manager
	Tokens      *token.Codec
	Mail        mailer.Sender
	EmailDomain string // e.g. "emory.edu"
	BaseURL     string
	SiteName    string
	Log         *zap.Logger
}

func NewHandler(students *studentstore.Store, sessions *session.Manager, tokens *token.Codec, mail mailer.Sender, emailDomain, baseURL, siteName string, log *zap.Logger) *Handler {
	return &Handler{
		Students:    students,
		Sessions:    sessions,
		Tokens:      tokens,
		Mail:        mail,
		EmailDomain: emailDomain,
		BaseURL:     baseURL,
		SiteName:    siteName,
		Log:         log,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account for an institution email and signs the
// student in. Registering again with a known email re-issues the session
// after re-verifying the password fields, matching the legacy upsert
// behavior.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httpjson.Error(w, apperr.Validation("missing_fields", "Name, email and password are required."))
		return
	}
	if !strings.HasSuffix(req.Email, "@"+h.EmailDomain) {
		httpjson.Error(w, apperr.Validation("invalid_email_domain",
			"An @"+h.EmailDomain+" email address is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hash, err := hashPassword(req.Password)
	if err != nil {
		httpjson.ServerError(w, h.Log, "hash password", err)
		return
	}

	student, err := h.Students.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		// Known email: treat as re-registration, refresh the credential.
		if err := h.Students.UpdatePassword(ctx, student.ID, hash); err != nil {
			httpjson.ServerError(w, h.Log, "update password", err)
			return
		}
		student.PasswordHash = hash
	case errors.Is(err, mongo.ErrNoDocuments):
		student, err = h.Students.Create(ctx, models.Student{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Verified:     true, // institution domain checked above
		})
		if err != nil {
			if errors.Is(err, studentstore.ErrDuplicateEmail) {
				httpjson.Error(w, apperr.Conflict("already_registered", "This email is already registered."))
				return
			}
			httpjson.ServerError(w, h.Log, "create student", err)
			return
		}
		h.sendVerificationMail(ctx, student)
	default:
		httpjson.ServerError(w, h.Log, "lookup student", err)
		return
	}

	h.Sessions.Issue(w, &student)
	httpjson.Created(w, map[string]any{"ok": true, "user": student.Public()})
}

// sendVerificationMail is best-effort; in dev mode the link only shows up
// in the server log.
func (h *Handler) sendVerificationMail(ctx context.Context, student models.Student) {
	tok := h.Tokens.Sign(verifyClaimPrefix + "|" + student.ID.Hex())
	msg := mailer.BuildVerificationEmail(student.Email, mailer.VerificationEmailData{
		SiteName:   h.SiteName,
		VerifyLink: h.BaseURL + "/auth/verify?token=" + tok,
		ExpiresIn:  "48 hours",
	})
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.Log.Warn("verification mail failed", zap.String("email", student.Email), zap.Error(err))
	}
}

// HandleVerify completes the emailed verification link. Fresh registrations
// on the institution domain are verified up front; this path flips the flag
// for accounts migrated from the legacy backend.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.Tokens.Verify(r.URL.Query().Get("token"))
	if !ok {
		httpjson.Error(w, apperr.Validation("invalid_token", "Invalid verification link."))
		return
	}
	prefix, rawID, found := strings.Cut(claim, "|")
	if !found || prefix != verifyClaimPrefix {
		httpjson.Error(w, apperr.Validation("invalid_token", "Invalid verification link."))
		return
	}
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_token", "Invalid verification link."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Students.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("student_not_found", "No account for this link."))
			return
		}
		httpjson.ServerError(w, h.Log, "lookup student", err)
		return
	}
	if err := h.Students.MarkVerified(ctx, id); err != nil {
		httpjson.ServerError(w, h.Log, "mark verified", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "verified": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and issues the session cookie. Legacy
// plaintext credentials are upgraded to bcrypt on first successful login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, apperr.Validation("missing_fields", "Email and password are required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	student, err := h.Students.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("user_not_found", "No account found for that email."))
			return
		}
		httpjson.ServerError(w, h.Log, "lookup student", err)
		return
	}

	ok, needsRehash := verifyPassword(student.PasswordHash, req.Password)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("invalid_credentials", "Incorrect password."))
		return
	}
	if needsRehash {
		if hash, err := hashPassword(req.Password); err == nil {
			if err := h.Students.UpdatePassword(ctx, student.ID, hash); err != nil {
				h.Log.Warn("credential upgrade failed", zap.String("student_id", student.ID.Hex()), zap.Error(err))
			}
		}
	}

	h.Sessions.Issue(w, &student)
	httpjson.OK(w, map[string]any{"user": student.Public()})
}

// HandleLogout clears the session cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	httpjson.OK(w, map[string]any{"ok": true})
}

// HandleMe returns the signed-in student.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := session.CurrentUser(r)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("not_authenticated", "Not authenticated"))
		return
	}
	httpjson.OK(w, map[string]any{"user": models.PublicView{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Verified: u.Verified,
	}})
}
