// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventLive      = "live"
)

// Event is a club event. All instants are stored in UTC; presentation
// formatting happens in system/clock, never here.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID `bson:"club_id" json:"club_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`

	StartTime time.Time  `bson:"start_time" json:"start_time"`
	EndTime   *time.Time `bson:"end_time,omitempty" json:"end_time,omitempty"`

	RSVPLimit int    `bson:"rsvp_limit,omitempty" json:"rsvp_limit,omitempty"`
	Status    string `bson:"status" json:"status"` // draft | published | live

	RSVPIDs     []primitive.ObjectID `bson:"rsvp_ids,omitempty" json:"rsvp_ids,omitempty"`
	AttendeeIDs []primitive.ObjectID `bson:"attendee_ids,omitempty" json:"attendee_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
