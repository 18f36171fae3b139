package auth

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/token"
	"github.com/dalemusser/clubhub/internal/testutil"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash = %q, want bcrypt format", hash)
	}

	ok, rehash := verifyPassword(hash, "correct horse battery staple")
	if !ok {
		t.Error("expected correct password to verify")
	}
	if rehash {
		t.Error("bcrypt hash should not need rehash")
	}

	ok, _ = verifyPassword(hash, "wrong password")
	if ok {
		t.Error("expected wrong password to fail")
	}
}

func TestVerifyPassword_LegacyPlaintext(t *testing.T) {
	ok, rehash := verifyPassword("legacy-secret", "legacy-secret")
	if !ok {
		t.Error("expected legacy plaintext match to verify")
	}
	if !rehash {
		t.Error("legacy credential should be flagged for rehash")
	}

	ok, _ = verifyPassword("legacy-secret", "different")
	if ok {
		t.Error("expected legacy mismatch to fail")
	}
}

func TestVerifyPassword_EmptyStored(t *testing.T) {
	ok, _ := verifyPassword("", "anything")
	if ok {
		t.Error("expected empty stored credential to fail")
	}
}

const testSecret = "auth-test-secret-0123456789ABCDEF"

func newTestHandler(t *testing.T) (*Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	students := studentstore.New(db)
	sessions := session.NewManager(testSecret, "clubhub_session", time.Hour, false, students, zap.NewNop())
	h := NewHandler(students, sessions, token.NewCodec(testSecret),
		&mailer.DevSender{Log: zap.NewNop()}, "emory.edu", "http://localhost:8080", "ClubHub", zap.NewNop())
	return h, db
}

func TestHandleRegister_RejectsForeignDomain(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewRequest(http.MethodPost, "/auth/register",
		`{"name":"Ada Lovelace","email":"ada@gmail.com","password":"hunter22"}`)
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "invalid_email_domain")

	// The rejection happens before any row is written.
	_, err := studentstore.New(db).GetByEmail(ctx, "ada@gmail.com")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no student row, got err=%v", err)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodPost, "/auth/register",
		`{"name":"Ada Lovelace","email":"ada@emory.edu","password":"hunter22"}`)
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	req = testutil.NewRequest(http.MethodPost, "/auth/login",
		`{"email":"ada@emory.edu","password":"not-hunter22"}`)
	rec = testutil.NewRecorder()
	h.HandleLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid_credentials")
}

func TestHandleRegister_CookieRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodPost, "/auth/register",
		`{"name":"Ada Lovelace","email":"ada@emory.edu","password":"hunter22"}`)
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "ada@emory.edu")

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == h.Sessions.CookieName() {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("register did not set a session cookie")
	}

	// The cookie alone identifies the student on /auth/me.
	me := testutil.NewRequest(http.MethodGet, "/auth/me", "")
	me.AddCookie(cookie)
	rec = testutil.NewRecorder()
	h.Sessions.LoadSessionUser(http.HandlerFunc(h.HandleMe)).ServeHTTP(rec.ResponseRecorder, me)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "ada@emory.edu")
	rec.AssertContains(t, "Ada Lovelace")
}

func TestHandleVerify_MarksLegacyAccount(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	legacy := fx.CreateUnverifiedStudent(ctx, "Grace Hopper", "grace@emory.edu")

	tok := h.Tokens.Sign(verifyClaimPrefix + "|" + legacy.ID.Hex())
	req := testutil.NewRequest(http.MethodGet, "/auth/verify?token="+tok, "")
	rec := testutil.NewRecorder()
	h.HandleVerify(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"verified":true`)

	got, err := studentstore.New(db).GetByID(ctx, legacy.ID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if !got.Verified {
		t.Error("student should be verified after following the link")
	}
}

func TestHandleVerify_RejectsForeignTokens(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	legacy := fx.CreateUnverifiedStudent(ctx, "Grace Hopper", "grace@emory.edu")

	// A session token is signed with the same secret but must not pass as a
	// verification link.
	sessionTok := h.Tokens.Sign(token.Claims{
		StudentID: legacy.ID.Hex(),
		Email:     legacy.Email,
		IssuedAt:  time.Now().Unix(),
	}.Encode())

	for _, tok := range []string{"", "garbage", sessionTok} {
		req := testutil.NewRequest(http.MethodGet, "/auth/verify?token="+tok, "")
		rec := testutil.NewRecorder()
		h.HandleVerify(rec.ResponseRecorder, req)

		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, "invalid_token")
	}
}
