// internal/app/features/members/handler.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/ledger"
	"github.com/dalemusser/clubhub/internal/app/query"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/httpjson"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the club membership surface. Every mutation goes through
// the ledger so all membership representations move together.
type Handler struct {
	Ledger  *ledger.Ledger
	Queries *query.Service
	Log     *zap.Logger
}

func NewHandler(led *ledger.Ledger, queries *query.Service, log *zap.Logger) *Handler {
	return &Handler{Ledger: led, Queries: queries, Log: log}
}

func objectIDParam(r *http.Request, key, code string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(code, "Invalid id.")
	}
	return id, nil
}

// writeLedgerError maps a ledger failure onto the response, falling back to
// a 500 for anything without an application error kind.
func (h *Handler) writeLedgerError(w http.ResponseWriter, op string, err error) {
	if apperr.From(err) != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.ServerError(w, h.Log, op, err)
}

// HandleList serves GET /clubs/{id}/members.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	members, err := h.Queries.MembersOfClub(ctx, clubID)
	if err != nil {
		h.writeLedgerError(w, "list members", err)
		return
	}
	if members == nil {
		members = []query.MemberView{}
	}
	httpjson.OK(w, map[string]any{"members": members})
}

type addMemberRequest struct {
	Email string `json:"email"`
}

// HandleAdd serves POST /clubs/{id}/members. An officer adds a student to
// the roster by email.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	actorID, ok := session.CurrentUserID(r)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("not_authenticated", "Not authenticated"))
		return
	}
	var req addMemberRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" {
		httpjson.Error(w, apperr.Validation("missing_email", "Email is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	added, err := h.Ledger.AddMemberByEmail(ctx, clubID, email, actorID)
	if err != nil {
		h.writeLedgerError(w, "add member", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "member": added})
}

// HandleRemove serves DELETE /clubs/{id}/members/{memberId}. Same rules as
// kick: only the president may remove, and never themselves or the
// president seat.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	targetID, err := objectIDParam(r, "memberId", "invalid_member_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	actorID, ok := session.CurrentUserID(r)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("not_authenticated", "Not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	remaining, err := h.Ledger.Kick(ctx, clubID, targetID, actorID)
	if err != nil {
		h.writeLedgerError(w, "remove member", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "memberCount": remaining})
}

type kickRequest struct {
	UserID   string `json:"userId"`
	KickedBy string `json:"kickedBy"`
}

// HandleKick serves POST /clubs/{id}/kick. The body names both the target
// and the acting president; the session user, when present, overrides the
// claimed actor.
func (h *Handler) HandleKick(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req kickRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid user id."))
		return
	}
	actorID, ok := session.CurrentUserID(r)
	if !ok {
		actorID, err = primitive.ObjectIDFromHex(req.KickedBy)
		if err != nil {
			httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid kickedBy id."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	remaining, err := h.Ledger.Kick(ctx, clubID, targetID, actorID)
	if err != nil {
		h.writeLedgerError(w, "kick member", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "memberCount": remaining})
}

type promoteRequest struct {
	UserID     string `json:"userId"`
	NewRole    string `json:"newRole"`
	PromotedBy string `json:"promotedBy"`
}

// HandlePromote serves POST /clubs/{id}/promote.
func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req promoteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid user id."))
		return
	}
	promoterID, ok := session.CurrentUserID(r)
	if !ok {
		promoterID, err = primitive.ObjectIDFromHex(req.PromotedBy)
		if err != nil {
			httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid promotedBy id."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	newRole := normalize.Role(req.NewRole)
	if err := h.Ledger.Promote(ctx, clubID, targetID, newRole, promoterID); err != nil {
		h.writeLedgerError(w, "promote member", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "newRole": newRole})
}

type demoteRequest struct {
	UserID    string `json:"userId"`
	DemotedBy string `json:"demotedBy"`
}

// HandleDemote serves POST /clubs/{id}/demote. The president strips an
// officer's role; the member stays on the roster.
func (h *Handler) HandleDemote(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req demoteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid user id."))
		return
	}
	demoterID, ok := session.CurrentUserID(r)
	if !ok {
		demoterID, err = primitive.ObjectIDFromHex(req.DemotedBy)
		if err != nil {
			httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid demotedBy id."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Ledger.Demote(ctx, clubID, targetID, demoterID); err != nil {
		h.writeLedgerError(w, "demote officer", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "newRole": "member"})
}

type joinRequest struct {
	UserID string `json:"userId"`
}

// studentFor resolves the acting student: the signed-in user if present,
// otherwise the id named in the body.
func studentFor(r *http.Request, bodyID string) (primitive.ObjectID, error) {
	if id, ok := session.CurrentUserID(r); ok {
		return id, nil
	}
	id, err := primitive.ObjectIDFromHex(bodyID)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid_user_id", "Invalid user id.")
	}
	return id, nil
}

// HandleJoin serves POST /clubs/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req joinRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, err := studentFor(r, req.UserID)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Ledger.Join(ctx, clubID, studentID); err != nil {
		h.writeLedgerError(w, "join club", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "joined": true})
}

// HandleLeave serves POST /clubs/{id}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	clubID, err := objectIDParam(r, "id", "invalid_club_id")
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req joinRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, err := studentFor(r, req.UserID)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Ledger.Leave(ctx, clubID, studentID); err != nil {
		h.writeLedgerError(w, "leave club", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "left": true})
}
