package clubs_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/features/clubs"
	"github.com/dalemusser/clubhub/internal/app/ledger"
	"github.com/dalemusser/clubhub/internal/app/query"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	reviewstore "github.com/dalemusser/clubhub/internal/app/store/reviews"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/testutil"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*clubs.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	h := clubs.NewHandler(
		clubstore.New(db),
		eventstore.New(db),
		reviewstore.New(db),
		query.New(db, zap.NewNop()),
		ledger.New(db.Client(), db, zap.NewNop()),
		zap.NewNop(),
	)
	return h, db
}

func TestHandleCreate_SeatsFoundingPresident(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	founder := fx.CreateStudent(ctx, "Frances Founder", "frances@emory.edu")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/clubs",
		`{"name":"Debate Society","description":"We argue.","purpose":"Argument"}`,
		testutil.StudentUser(founder.ID, founder.Name, founder.Email))
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	clubID, err := primitive.ObjectIDFromHex(body.ID)
	if err != nil {
		t.Fatalf("invalid club id in response: %v", err)
	}

	club, err := clubstore.New(db).GetByID(ctx, clubID)
	if err != nil {
		t.Fatalf("get created club: %v", err)
	}
	if len(club.PresidentIDs) != 1 || club.PresidentIDs[0] != founder.ID {
		t.Errorf("president_ids = %v, want [%s]", club.PresidentIDs, founder.ID.Hex())
	}

	count, err := db.Collection("officer_roles").CountDocuments(ctx,
		bson.M{"club_id": clubID, "student_id": founder.ID, "role": "president"})
	if err != nil {
		t.Fatalf("count role rows: %v", err)
	}
	if count != 1 {
		t.Errorf("president role rows = %d, want 1", count)
	}
}

func TestHandleCreate_DuplicateName(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateClub(ctx, "Chess Club")

	req := testutil.NewRequest(http.MethodPost, "/clubs", `{"name":"chess club"}`)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "duplicate_club_name")
}

func TestHandleList_SearchAndVerifiedFilter(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateVerifiedClub(ctx, "Chess Club")
	fx.CreateClub(ctx, "Hiking Club")

	req := testutil.NewRequest(http.MethodGet, "/clubs?search=chess&verified=true", "")
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Chess Club")
	if got := rec.Body.String(); contains(got, "Hiking Club") {
		t.Errorf("unverified club leaked into verified-only results: %s", got)
	}
}

func TestHandleUpdateProfile_SanitizesAndStampsFreshness(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	club := fx.CreateClub(ctx, "Robotics Club")

	req := testutil.NewRequest(http.MethodPut, "/clubs/"+club.ID.Hex()+"/profile",
		`{"purpose":"Build robots<script>alert(1)</script>","contactEmail":" ROBOTS@Emory.edu "}`)
	req = testutil.WithChiURLParam(req, "id", club.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdateProfile(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)

	updated, err := clubstore.New(db).GetByID(ctx, club.ID)
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if updated.Purpose != "Build robots" {
		t.Errorf("purpose = %q, want script stripped", updated.Purpose)
	}
	if updated.ContactEmail != "robots@emory.edu" {
		t.Errorf("contact email = %q, want normalized", updated.ContactEmail)
	}
	if updated.LastUpdatedAt == nil {
		t.Error("last_updated_at not stamped by profile edit")
	}
	if updated.UpdateRecencyBadge != "Updated today" {
		t.Errorf("recency badge = %q", updated.UpdateRecencyBadge)
	}
}

func TestHandleReview_ValidatesRating(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	club := fx.CreateClub(ctx, "Film Society")
	student := fx.CreateStudent(ctx, "Riley Reviewer", "riley@emory.edu")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/clubs/"+club.ID.Hex()+"/review",
		`{"rating":7,"review":"too good"}`,
		testutil.StudentUser(student.ID, student.Name, student.Email))
	req = testutil.WithChiURLParam(req, "id", club.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleReview(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "invalid_rating")
}

func TestHandleReview_UpsertReplacesEarlier(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	club := fx.CreateClub(ctx, "Film Society")
	student := fx.CreateStudent(ctx, "Riley Reviewer", "riley@emory.edu")
	user := testutil.StudentUser(student.ID, student.Name, student.Email)

	for _, rating := range []string{`{"rating":3,"review":"fine"}`, `{"rating":5,"review":"great"}`} {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/clubs/"+club.ID.Hex()+"/review", rating, user)
		req = testutil.WithChiURLParam(req, "id", club.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleReview(rec.ResponseRecorder, req)
		rec.AssertStatus(t, http.StatusOK)
	}

	count, err := db.Collection("reviews").CountDocuments(ctx,
		bson.M{"club_id": club.ID, "student_id": student.ID})
	if err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 1 {
		t.Errorf("review rows = %d, want 1 after resubmit", count)
	}

	avg, n, ok, err := reviewstore.New(db).AverageRating(ctx, club.ID)
	if err != nil || !ok {
		t.Fatalf("average rating: ok=%v err=%v", ok, err)
	}
	if n != 1 || avg != 5 {
		t.Errorf("average = %v over %d reviews, want 5 over 1", avg, n)
	}
}

func TestHandleDeleteReview_RemovesOwnOnly(t *testing.T) {
	h, db := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	club := fx.CreateClub(ctx, "Film Society")
	reviewer := fx.CreateStudent(ctx, "Riley Reviewer", "riley@emory.edu")
	other := fx.CreateStudent(ctx, "Quinn Quiet", "quinn@emory.edu")
	fx.CreateReview(ctx, club.ID, reviewer.ID, 4, "solid")

	// A student without a review gets a 404.
	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/clubs/"+club.ID.Hex()+"/review", "",
		testutil.StudentUser(other.ID, other.Name, other.Email))
	req = testutil.WithChiURLParam(req, "id", club.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDeleteReview(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "review_not_found")

	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/clubs/"+club.ID.Hex()+"/review", "",
		testutil.StudentUser(reviewer.ID, reviewer.Name, reviewer.Email))
	req = testutil.WithChiURLParam(req, "id", club.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleDeleteReview(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	count, err := db.Collection("reviews").CountDocuments(ctx, bson.M{"club_id": club.ID})
	if err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 0 {
		t.Errorf("review rows = %d, want 0 after delete", count)
	}
}

func TestHandleMetrics_UnknownClub(t *testing.T) {
	h, _ := newHandler(t)

	missing := primitive.NewObjectID().Hex()
	req := testutil.NewRequest(http.MethodGet, "/clubs/"+missing+"/metrics", "")
	req = testutil.WithChiURLParam(req, "id", missing)
	rec := testutil.NewRecorder()
	h.HandleMetrics(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "club_not_found")
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
