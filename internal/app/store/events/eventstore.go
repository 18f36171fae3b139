// internal/app/store/events/eventstore.go
package eventstore

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
	return &Store{c: db.Collection("events")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	if e.Status == "" {
		e.Status = models.EventPublished
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// EventUpdate carries the editable event fields. Nil pointers leave the
// stored value alone.
type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
	RSVPLimit   *int
	Status      *string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd EventUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.StartTime != nil {
		set["start_time"] = *upd.StartTime
	}
	if upd.EndTime != nil {
		set["end_time"] = *upd.EndTime
	}
	if upd.RSVPLimit != nil {
		set["rsvp_limit"] = *upd.RSVPLimit
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByClub returns the club's events, soonest first.
func (s *Store) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUpcoming returns published events starting at or after now, campus
// wide, soonest first.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int64) ([]models.Event, error) {
	filter := bson.M{
		"status":     bson.M{"$in": []string{models.EventPublished, models.EventLive}},
		"start_time": bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpcomingCountByClub counts the club's published events from now on.
func (s *Store) UpcomingCountByClub(ctx context.Context, clubID primitive.ObjectID, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"club_id":    clubID,
		"status":     bson.M{"$in": []string{models.EventPublished, models.EventLive}},
		"start_time": bson.M{"$gte": now},
	})
}

// ListUpcomingForStudent returns upcoming events the student RSVPed to,
// soonest first.
func (s *Store) ListUpcomingForStudent(ctx context.Context, studentID primitive.ObjectID, now time.Time) ([]models.Event, error) {
	filter := bson.M{
		"rsvp_ids":   studentID,
		"start_time": bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRSVP records the student on the event's RSVP list.
func (s *Store) AddRSVP(ctx context.Context, eventID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$addToSet": bson.M{"rsvp_ids": studentID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) RemoveRSVP(ctx context.Context, eventID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$pull": bson.M{"rsvp_ids": studentID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// MarkAttended moves the student from the RSVP list to the attendee list.
func (s *Store) MarkAttended(ctx context.Context, eventID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$pull":     bson.M{"rsvp_ids": studentID},
		"$addToSet": bson.M{"attendee_ids": studentID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
