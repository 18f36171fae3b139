package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	if rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context); ok && rctx != nil {
		rctx.URLParams.Add(key, value)
		return r
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStudent creates a verified test student with the given name and email.
// Returns the created student with its generated ID.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	student := models.Student{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: "test-password",
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("students").InsertOne(ctx, student)
	if err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}

	return student
}

// CreateUnverifiedStudent creates a test student who has not verified their email.
func (f *Fixtures) CreateUnverifiedStudent(ctx context.Context, name, email string) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	student := models.Student{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: "test-password",
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("students").InsertOne(ctx, student)
	if err != nil {
		f.t.Fatalf("failed to create unverified test student: %v", err)
	}

	return student
}

// CreateClub creates a test club with the given name.
func (f *Fixtures) CreateClub(ctx context.Context, name string) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	club := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test club description",
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("clubs").InsertOne(ctx, club)
	if err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}

	return club
}

// CreateVerifiedClub creates a test club with the verified flag set.
func (f *Fixtures) CreateVerifiedClub(ctx context.Context, name string) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	club := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test club description",
		Verified:    true,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("clubs").InsertOne(ctx, club)
	if err != nil {
		f.t.Fatalf("failed to create verified test club: %v", err)
	}

	return club
}

// CreateOfficerRole creates a role record linking a student to a club.
// Cache arrays on the club and student are left alone; tests that need them
// populated should go through the ledger instead.
func (f *Fixtures) CreateOfficerRole(ctx context.Context, clubID, studentID primitive.ObjectID, role string) models.OfficerRole {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.OfficerRole{
		ID:         primitive.NewObjectID(),
		ClubID:     clubID,
		StudentID:  studentID,
		Role:       role,
		AssignedAt: now,
	}

	_, err := f.db.Collection("officer_roles").InsertOne(ctx, rec)
	if err != nil {
		f.t.Fatalf("failed to create test officer role: %v", err)
	}

	return rec
}

// CreateEvent creates a published test event for the given club starting at start.
func (f *Fixtures) CreateEvent(ctx context.Context, clubID primitive.ObjectID, title string, start time.Time) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	event := models.Event{
		ID:        primitive.NewObjectID(),
		ClubID:    clubID,
		Title:     title,
		Location:  "Test Hall 101",
		StartTime: start,
		Status:    models.EventPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("events").InsertOne(ctx, event)
	if err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}

	return event
}

// CreateReview creates an approved test review of a club by a student.
func (f *Fixtures) CreateReview(ctx context.Context, clubID, studentID primitive.ObjectID, rating int, text string) models.Review {
	f.t.Helper()

	now := time.Now().UTC()
	review := models.Review{
		ID:         primitive.NewObjectID(),
		ClubID:     clubID,
		StudentID:  studentID,
		Rating:     rating,
		ReviewText: text,
		Status:     "approved",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("reviews").InsertOne(ctx, review)
	if err != nil {
		f.t.Fatalf("failed to create test review: %v", err)
	}

	return review
}
