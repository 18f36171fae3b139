// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/query"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	studentstore "github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/httpjson"
	"github.com/dalemusser/clubhub/internal/app/system/sanitize"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the event surface. RSVP and attendance writes land on the
// event roster and the student's caches inside one transaction so the two
// sides never drift.
type Handler struct {
	Client   *mongo.Client
	Events   *eventstore.Store
	Students *studentstore.Store
	Queries  *query.Service
	Log      *zap.Logger
}

func NewHandler(client *mongo.Client, events *eventstore.Store, students *studentstore.Store, queries *query.Service, log *zap.Logger) *Handler {
	return &Handler{Client: client, Events: events, Students: students, Queries: queries, Log: log}
}

func eventIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid_event_id", "Invalid event id.")
	}
	return id, nil
}

// HandleList serves GET /events. With ?upcoming=true only future published
// or live events are returned, soonest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upcoming := r.URL.Query().Get("upcoming") == "true" || r.URL.Query().Get("upcoming") == "1"
	if upcoming {
		var viewerID primitive.ObjectID
		if id, ok := session.CurrentUserID(r); ok {
			viewerID = id
		}
		views, err := h.Queries.UpcomingEvents(ctx, viewerID)
		if err != nil {
			httpjson.ServerError(w, h.Log, "list upcoming events", err)
			return
		}
		if views == nil {
			views = []query.UpcomingEventView{}
		}
		httpjson.OK(w, map[string]any{"events": views})
		return
	}

	events, err := h.Events.ListUpcoming(ctx, time.Time{}, 0)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	httpjson.OK(w, map[string]any{"events": events})
}

type createRequest struct {
	ClubID      string  `json:"clubId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	StartTime   string  `json:"startTime"`
	EndTime     *string `json:"endTime"`
	RSVPLimit   int     `json:"rsvpLimit"`
	Status      string  `json:"status"`
}

func parseEventTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_time", "Times must be RFC 3339, e.g. 2026-09-01T18:00:00Z.")
	}
	return t.UTC(), nil
}

// HandleCreate serves POST /events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	if req.Title == "" || req.ClubID == "" || req.StartTime == "" {
		httpjson.Error(w, apperr.Validation("missing_fields", "clubId, title and startTime are required."))
		return
	}
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		httpjson.Error(w, apperr.Validation("invalid_club_id", "Invalid club id."))
		return
	}
	start, err := parseEventTime(req.StartTime)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	e := models.Event{
		ClubID:      clubID,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Rich(req.Description),
		Location:    sanitize.Text(req.Location),
		StartTime:   start,
		RSVPLimit:   req.RSVPLimit,
		Status:      req.Status,
	}
	if req.EndTime != nil && *req.EndTime != "" {
		end, err := parseEventTime(*req.EndTime)
		if err != nil {
			httpjson.Error(w, err)
			return
		}
		if end.Before(start) {
			httpjson.Error(w, apperr.Validation("invalid_time", "endTime is before startTime."))
			return
		}
		e.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Events.Create(ctx, e)
	if err != nil {
		httpjson.ServerError(w, h.Log, "create event", err)
		return
	}
	httpjson.Created(w, map[string]any{"id": created.ID.Hex()})
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	RSVPLimit   *int    `json:"rsvpLimit"`
	Status      *string `json:"status"`
}

// HandleUpdate serves PUT /events/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}

	upd := eventstore.EventUpdate{
		RSVPLimit: req.RSVPLimit,
	}
	if req.Title != nil {
		clean := sanitize.Text(*req.Title)
		upd.Title = &clean
	}
	if req.Description != nil {
		clean := sanitize.Rich(*req.Description)
		upd.Description = &clean
	}
	if req.Location != nil {
		clean := sanitize.Text(*req.Location)
		upd.Location = &clean
	}
	if req.Status != nil {
		switch *req.Status {
		case models.EventDraft, models.EventPublished, models.EventLive:
			upd.Status = req.Status
		default:
			httpjson.Error(w, apperr.Validation("invalid_status", "Status must be draft, published or live."))
			return
		}
	}
	if req.StartTime != nil {
		start, err := parseEventTime(*req.StartTime)
		if err != nil {
			httpjson.Error(w, err)
			return
		}
		upd.StartTime = &start
	}
	if req.EndTime != nil && *req.EndTime != "" {
		end, err := parseEventTime(*req.EndTime)
		if err != nil {
			httpjson.Error(w, err)
			return
		}
		upd.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Events.Update(ctx, id, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("event_not_found", "Event not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "update event", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true})
}

// HandleDelete serves DELETE /events/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Events.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete event", err)
		return
	}
	if deleted == 0 {
		httpjson.Error(w, apperr.NotFound("event_not_found", "Event not found."))
		return
	}
	httpjson.OK(w, map[string]any{"ok": true})
}

type rsvpRequest struct {
	UserID string `json:"userId"`
}

// HandleRSVP serves POST /events/{id}/rsvp. The call toggles: a student
// with an RSVP on file withdraws it, anyone else is added, subject to the
// event's rsvp limit.
func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req rsvpRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, ok := session.CurrentUserID(r)
	if !ok {
		studentID, err = primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid user id."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("event_not_found", "Event not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get event", err)
		return
	}

	already := false
	for _, rid := range event.RSVPIDs {
		if rid == studentID {
			already = true
			break
		}
	}

	if already {
		err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
			if err := h.Events.RemoveRSVP(ctx, id, studentID); err != nil {
				return err
			}
			return h.Students.RemoveRSVP(ctx, studentID, id)
		})
		if err != nil {
			httpjson.ServerError(w, h.Log, "withdraw rsvp", err)
			return
		}
		httpjson.OK(w, map[string]any{"rsvped": false, "registered": len(event.RSVPIDs) - 1})
		return
	}

	if event.RSVPLimit > 0 && len(event.RSVPIDs) >= event.RSVPLimit {
		httpjson.Error(w, apperr.Conflict("event_full", "This event has reached its RSVP limit."))
		return
	}
	err = txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if err := h.Events.AddRSVP(ctx, id, studentID); err != nil {
			return err
		}
		return h.Students.AddRSVP(ctx, studentID, id)
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "add rsvp", err)
		return
	}
	httpjson.OK(w, map[string]any{"rsvped": true, "registered": len(event.RSVPIDs) + 1})
}

// HandleAttend serves POST /events/{id}/attend. Attendance moves the
// student from the RSVP lists to the attended lists on both sides; walk-ins
// without an RSVP are recorded as attended too.
func (h *Handler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	var req rsvpRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	studentID, ok := session.CurrentUserID(r)
	if !ok {
		studentID, err = primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			httpjson.Error(w, apperr.Validation("invalid_user_id", "Invalid user id."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("event_not_found", "Event not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get event", err)
		return
	}
	if _, err := h.Students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, apperr.NotFound("student_not_found", "Student not found."))
			return
		}
		httpjson.ServerError(w, h.Log, "get student", err)
		return
	}

	err = txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if err := h.Events.MarkAttended(ctx, id, studentID); err != nil {
			return err
		}
		return h.Students.MarkAttended(ctx, studentID, id)
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "mark attended", err)
		return
	}
	httpjson.OK(w, map[string]any{"ok": true, "attended": true})
}
