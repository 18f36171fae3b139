// internal/app/features/students/handler.go
package students

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/query"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	studentstore "github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/httpjson"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the student dashboard projections.
type Handler struct {
	Students *studentstore.Store
	Clubs    *clubstore.Store
	Queries  *query.Service
	Log      *zap.Logger
}

func NewHandler(students *studentstore.Store, clubs *clubstore.Store, queries *query.Service, log *zap.Logger) *Handler {
	return &Handler{Students: students, Clubs: clubs, Queries: queries, Log: log}
}

func studentIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid_student_id", "Invalid student id.")
	}
	return id, nil
}

// HandleMyClubs serves GET /students/{id}/my-clubs.
func (h *Handler) HandleMyClubs(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	clubs, err := h.Queries.ClubsOfStudent(ctx, id)
	if err != nil {
		h.writeQueryError(w, "clubs of student", err)
		return
	}
	if clubs == nil {
		clubs = []query.MyClubView{}
	}
	httpjson.OK(w, map[string]any{"clubs": clubs})
}

// HandleOfficerClubs serves GET /students/{id}/officer-clubs.
func (h *Handler) HandleOfficerClubs(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	clubs, err := h.Queries.OfficerClubsOfStudent(ctx, id)
	if err != nil {
		h.writeQueryError(w, "officer clubs of student", err)
		return
	}
	if clubs == nil {
		clubs = []query.OfficerClubView{}
	}
	httpjson.OK(w, map[string]any{"clubs": clubs})
}

// HandleStats serves GET /students/{id}/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	stats, err := h.Queries.StudentStats(ctx, id)
	if err != nil {
		h.writeQueryError(w, "student stats", err)
		return
	}
	httpjson.OK(w, stats)
}

// HandleRecentActivity serves GET /students/{id}/recent-activity.
func (h *Handler) HandleRecentActivity(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	items, err := h.Queries.RecentActivity(ctx, id)
	if err != nil {
		h.writeQueryError(w, "recent activity", err)
		return
	}
	if items == nil {
		items = []query.ActivityItem{}
	}
	httpjson.OK(w, map[string]any{"activity": items})
}

// HandleUpcomingEvents serves GET /students/{id}/upcoming-events.
func (h *Handler) HandleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Queries.UpcomingEvents(ctx, id)
	if err != nil {
		h.writeQueryError(w, "upcoming events", err)
		return
	}
	if events == nil {
		events = []query.UpcomingEventView{}
	}
	httpjson.OK(w, map[string]any{"events": events})
}

// HandleSearch serves GET /students/search?email=. Lookup is exact and
// case-insensitive; only the public projection is returned.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	email := normalize.Email(r.URL.Query().Get("email"))
	if email == "" {
		httpjson.Error(w, apperr.Validation("missing_email", "The email parameter is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	student, err := h.Students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("student_not_found", "No student with this email."))
			return
		}
		httpjson.ServerError(w, h.Log, "search student", err)
		return
	}
	httpjson.OK(w, map[string]any{"user": student.Public()})
}

type favoriteRequest struct {
	ClubID   string `json:"clubId"`
	Favorite bool   `json:"favorite"`
}

// HandleFavorite serves POST /students/{id}/favorite, pinning or unpinning
// a club on the student's dashboard.
func (h *Handler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := studentIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req favoriteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_club_id", "Invalid club id."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Clubs.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("club_not_found", "Club not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get club", err)
		return
	}
	if err := h.Students.SetFavorite(ctx, id, clubID, req.Favorite); err != nil {
		httpjson.ServerError(w, h.Log, "set favorite", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "favorite": req.Favorite})
}

func (h *Handler) writeQueryError(w http.ResponseWriter, op string, err error) {
	if apperr.From(err) != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.ServerError(w, h.Log, op, err)
}
