// internal/app/store/reviews/reviewstore.go
package reviewstore

import (
	"context"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reviews")}
}

// Upsert writes the student's review of a club. A student gets one review
// per club; submitting again replaces it.
func (s *Store) Upsert(ctx context.Context, clubID, studentID primitive.ObjectID, rating int, reviewText string) (models.Review, error) {
	now := time.Now().UTC()
	filter := bson.M{"club_id": clubID, "student_id": studentID}
	update := bson.M{
		"$set": bson.M{
			"rating":      rating,
			"review_text": reviewText,
			"status":      "approved",
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"club_id":    clubID,
			"student_id": studentID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec models.Review
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		return models.Review{}, err
	}
	return rec, nil
}

// ListByClub returns the club's reviews, newest first.
func (s *Store) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AverageRating returns the club's mean rating and the number of reviews.
// A club with no reviews reports ok=false.
func (s *Store) AverageRating(ctx context.Context, clubID primitive.ObjectID) (avg float64, count int64, ok bool, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"club_id": clubID}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"avg": bson.M{"$avg": "$rating"},
			"n":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, false, err
	}
	defer cur.Close(ctx)

	var row struct {
		Avg float64 `bson:"avg"`
		N   int64   `bson:"n"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, 0, false, err
		}
		return row.Avg, row.N, true, nil
	}
	return 0, 0, false, cur.Err()
}

// DeleteByClubAndStudent removes the student's review of a club, if any.
func (s *Store) DeleteByClubAndStudent(ctx context.Context, clubID, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"club_id": clubID, "student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
