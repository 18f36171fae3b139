// internal/domain/models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a student's rating of a club. Unique per (club_id, student_id);
// repeated submissions upsert the rating.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID     primitive.ObjectID `bson:"club_id" json:"club_id"`
	StudentID  primitive.ObjectID `bson:"student_id" json:"student_id"`
	Rating     int                `bson:"rating" json:"rating"` // 1..5
	ReviewText string             `bson:"review_text,omitempty" json:"review_text,omitempty"`
	Status     string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
