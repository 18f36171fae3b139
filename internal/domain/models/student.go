// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is a registered campus user.
//
// NOTE:
//   - MyClubs / OfficerClubs / FavoriteClubs are cached arrays kept in
//     lockstep with the officer_roles collection by the membership ledger.
//     OfficerClubs must always be a subset of the clubs for which an
//     OfficerRole row exists for this student. Only the ledger may write
//     any of these arrays.
type Student struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email   string             `bson:"email" json:"email"`
	EmailCI string             `bson:"email_ci" json:"email_ci"`

	// PasswordHash is an opaque credential blob. New registrations store a
	// bcrypt hash; rows migrated from the legacy backend may still hold the
	// raw password (compared in constant time, never logged).
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	Verified     bool   `bson:"verified" json:"verified"`

	MyClubs       []primitive.ObjectID `bson:"my_clubs,omitempty" json:"my_clubs,omitempty"`
	OfficerClubs  []primitive.ObjectID `bson:"officer_clubs,omitempty" json:"officer_clubs,omitempty"`
	FavoriteClubs []primitive.ObjectID `bson:"favorite_clubs,omitempty" json:"favorite_clubs,omitempty"`

	RSVPedEvents   []primitive.ObjectID `bson:"rsvped_events,omitempty" json:"rsvped_events,omitempty"`
	AttendedEvents []primitive.ObjectID `bson:"attended_events,omitempty" json:"attended_events,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PublicView is the read-only projection of a Student that crosses the HTTP
// boundary. It never carries the credential blob.
type PublicView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"isVerified"`
}

// Public returns the student's public projection.
func (s *Student) Public() PublicView {
	return PublicView{
		ID:       s.ID.Hex(),
		Name:     s.Name,
		Email:    s.Email,
		Verified: s.Verified,
	}
}
