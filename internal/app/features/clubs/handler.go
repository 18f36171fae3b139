// internal/app/features/clubs/handler.go
package clubs

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/clubhub/internal/app/ledger"
	"github.com/dalemusser/clubhub/internal/app/query"
	"github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/store/reviews"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/app/system/httpjson"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/sanitize"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the club directory and per-club pages.
type Handler struct {
	Clubs   *clubstore.Store
	Events  *eventstore.Store
	Reviews *reviewstore.Store
	Queries *query.Service
	Ledger  *ledger.Ledger
	Log     *zap.Logger
}

func NewHandler(clubs *clubstore.Store, events *eventstore.Store, reviews *reviewstore.Store, queries *query.Service, led *ledger.Ledger, log *zap.Logger) *Handler {
	return &Handler{
		Clubs:   clubs,
		Events:  events,
		Reviews: reviews,
		Queries: queries,
		Ledger:  led,
		Log:     log,
	}
}

// clubIDParam parses the {id} URL parameter.
func clubIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid_club_id", "Invalid club id.")
	}
	return id, nil
}

// HandleList serves GET /clubs with search, sort and filter parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := query.ListOptions{
		Search:       normalize.QueryParam(q.Get("search")),
		Smart:        q.Get("smart") == "true" || q.Get("smart") == "1",
		VerifiedOnly: q.Get("verified") == "true" || q.Get("verified") == "1",
		SortBy:       normalize.QueryParam(q.Get("sort")),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		opts.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		opts.Offset = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	items, err := h.Queries.ListClubs(ctx, opts)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list clubs", err)
		return
	}
	if items == nil {
		items = []query.ClubListItem{}
	}
	httpjson.OK(w, map[string]any{"clubs": items})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// HandleCreate serves POST /clubs. The signed-in creator is seated as the
// founding president.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	req.Name = normalize.Name(req.Name)
	if req.Name == "" {
		httpjson.Error(w, apperr.Validation("missing_name", "Club name is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	club, err := h.Clubs.Create(ctx, models.Club{
		Name:        req.Name,
		Description: sanitize.Rich(req.Description),
		Purpose:     sanitize.Text(req.Purpose),
	})
	if err != nil {
		if errors.Is(err, clubstore.ErrDuplicateClubName) {
			httpjson.Error(w, apperr.Conflict("duplicate_club_name", "A club with this name already exists."))
			return
		}
		httpjson.ServerError(w, h.Log, "create club", err)
		return
	}

	if creatorID, ok := session.CurrentUserID(r); ok {
		if err := h.Ledger.EstablishPresident(ctx, club.ID, creatorID); err != nil {
			h.Log.Warn("seat founding president failed",
				zap.String("club_id", club.ID.Hex()), zap.Error(err))
		}
	}

	httpjson.Created(w, map[string]any{"id": club.ID.Hex()})
}

// HandleGetProfile serves GET /clubs/{id}/profile.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("club_not_found", "Club not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get club", err)
		return
	}
	httpjson.OK(w, map[string]any{"club": club})
}

type profileRequest struct {
	Description        *string   `json:"description"`
	Purpose            *string   `json:"purpose"`
	Activities         *string   `json:"activities"`
	MediaURLs          *[]string `json:"mediaUrls"`
	ContactEmail       *string   `json:"contactEmail"`
	ContactPhone       *string   `json:"contactPhone"`
	RequestInfoFormURL *string   `json:"requestInfoFormUrl"`
}

// HandleUpdateProfile serves PUT /clubs/{id}/profile. Text fields are
// sanitized; the write stamps the profile-freshness markers.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req profileRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}

	upd := clubstore.ProfileUpdate{
		MediaURLs:          req.MediaURLs,
		RequestInfoFormURL: req.RequestInfoFormURL,
	}
	if req.Description != nil {
		clean := sanitize.Rich(*req.Description)
		upd.Description = &clean
	}
	if req.Purpose != nil {
		clean := sanitize.Text(*req.Purpose)
		upd.Purpose = &clean
	}
	if req.Activities != nil {
		clean := sanitize.Text(*req.Activities)
		upd.Activities = &clean
	}
	if req.ContactEmail != nil {
		clean := normalize.Email(*req.ContactEmail)
		upd.ContactEmail = &clean
	}
	if req.ContactPhone != nil {
		clean := sanitize.Text(*req.ContactPhone)
		upd.ContactPhone = &clean
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Clubs.UpdateProfile(ctx, id, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("club_not_found", "Club not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "update club profile", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true})
}

// HandleMetrics serves GET /clubs/{id}/metrics.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	metrics, err := h.Queries.ClubMetrics(ctx, id)
	if err != nil {
		if apperr.From(err) != nil {
			httpjson.Error(w, err)
			return
		}
		httpjson.ServerError(w, h.Log, "club metrics", err)
		return
	}
	httpjson.OK(w, metrics)
}

// clubEventView carries presentation times alongside the raw event.
type clubEventView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	RSVPs     int    `json:"rsvps"`
	Attendees int    `json:"attendees"`
}

// HandleEvents serves GET /clubs/{id}/events.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.ListByClub(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list club events", err)
		return
	}

	views := make([]clubEventView, 0, len(events))
	for _, e := range events {
		views = append(views, clubEventView{
			ID:        e.ID.Hex(),
			Title:     e.Title,
			Location:  e.Location,
			Date:      clock.Date(e.StartTime),
			Time:      clock.Clock(e.StartTime),
			Status:    e.Status,
			RSVPs:     len(e.RSVPIDs),
			Attendees: len(e.AttendeeIDs),
		})
	}
	httpjson.OK(w, map[string]any{"events": views})
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// HandleReview serves POST /clubs/{id}/review. One review per student per
// club; submitting again replaces the earlier one.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, ok := session.CurrentUserID(r)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("not_authenticated", "Not authenticated"))
		return
	}
	var req reviewRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		httpjson.Error(w, apperr.Validation("invalid_rating", "Rating must be between 1 and 5."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Clubs.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("club_not_found", "Club not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get club", err)
		return
	}

	rec, err := h.Reviews.Upsert(ctx, id, studentID, req.Rating, sanitize.Text(req.Review))
	if err != nil {
		httpjson.ServerError(w, h.Log, "upsert review", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "review": rec})
}

// HandleDeleteReview serves DELETE /clubs/{id}/review. A student can only
// withdraw their own review.
func (h *Handler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := clubIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, ok := session.CurrentUserID(r)
	if !ok {
		httpjson.Error(w, apperr.Unauthorized("not_authenticated", "Not authenticated"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Reviews.DeleteByClubAndStudent(ctx, id, studentID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete review", err)
		return
	}
	if deleted == 0 {
		httpjson.Error(w, apperr.NotFound("review_not_found", "You have not reviewed this club."))
		return
	}
	httpjson.OK(w, map[string]any{"ok": true})
}
