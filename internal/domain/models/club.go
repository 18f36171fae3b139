// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club is a campus organization.
//
// NOTE:
//   - MemberIDs / Officers / PresidentIDs are cached arrays; the
//     officer_roles collection is the source of truth for role assignment.
//     The membership ledger mutates the arrays in lockstep with the
//     relation, and readers always union the two.
type Club struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	Description string   `bson:"description" json:"description"`
	Purpose     string   `bson:"purpose,omitempty" json:"purpose,omitempty"`
	Activities  string   `bson:"activities,omitempty" json:"activities,omitempty"`
	MediaURLs   []string `bson:"media_urls,omitempty" json:"media_urls,omitempty"`

	ContactEmail       string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone       string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	RequestInfoFormURL string `bson:"request_info_form_url,omitempty" json:"request_info_form_url,omitempty"`

	Verified bool   `bson:"verified" json:"verified"`
	Status   string `bson:"status" json:"status"` // active | inactive | delisted

	MemberIDs    []primitive.ObjectID `bson:"member_ids,omitempty" json:"member_ids,omitempty"`
	Officers     []primitive.ObjectID `bson:"officers,omitempty" json:"officers,omitempty"`
	PresidentIDs []primitive.ObjectID `bson:"president_ids,omitempty" json:"president_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	// Profile-edit bookkeeping, distinct from UpdatedAt which moves on any
	// write. Drives the freshness score.
	LastUpdatedAt      *time.Time `bson:"last_updated_at,omitempty" json:"last_updated_at,omitempty"`
	UpdateRecencyBadge string     `bson:"update_recency_badge,omitempty" json:"update_recency_badge,omitempty"`
}
