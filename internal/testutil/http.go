package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/session"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents signed-in student data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Name     string
	Email    string
	Verified bool
}

// VerifiedStudent returns a TestUser for a verified student account.
func VerifiedStudent() TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Student",
		Email:    "student@emory.edu",
		Verified: true,
	}
}

// StudentUser returns a TestUser backed by an existing student ID.
func StudentUser(id primitive.ObjectID, name, email string) TestUser {
	return TestUser{
		ID:       id.Hex(),
		Name:     name,
		Email:    email,
		Verified: true,
	}
}

// WithUser adds a signed-in student to the request context for testing
// authenticated handlers. This bypasses the session middleware and injects
// the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	view := &session.UserView{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Verified: user.Verified,
	}
	return session.WithTestUser(r, view)
}

// NewRequest creates an HTTP request for testing. A non-empty body is sent
// as JSON.
func NewRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a signed-in student
// in context.
func NewAuthenticatedRequest(method, target, body string, user TestUser) *http.Request {
	return WithUser(NewRequest(method, target, body), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
