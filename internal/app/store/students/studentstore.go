// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateEmail = errors.New("a student with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// GetByEmail looks up a student by email, case/diacritics folded.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.NameCI = text.Fold(st.Name)
	st.EmailCI = text.Fold(st.Email)
	st.CreatedAt = now
	st.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, st)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicateEmail
		}
		return models.Student{}, err
	}
	return st, nil
}

// GetMany fetches the students with the given IDs, in no particular order.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByName returns students whose folded name starts with the folded
// query, name order, capped at limit.
func (s *Store) SearchByName(ctx context.Context, query string, limit int64) ([]models.Student, error) {
	folded := text.Fold(query)
	if folded == "" {
		return nil, nil
	}
	filter := bson.M{"name_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(folded)}}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"verified":   true,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// UpdatePassword replaces the stored credential blob (used when upgrading a
// legacy plaintext credential to a bcrypt hash after a successful login).
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// AddClub records club membership on the student's cache arrays.
func (s *Store) AddClub(ctx context.Context, studentID, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$addToSet": bson.M{"my_clubs": clubID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveClub clears the club from both the membership and officer caches.
func (s *Store) RemoveClub(ctx context.Context, studentID, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$pull": bson.M{"my_clubs": clubID, "officer_clubs": clubID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) AddOfficerClub(ctx context.Context, studentID, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$addToSet": bson.M{"officer_clubs": clubID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) RemoveOfficerClub(ctx context.Context, studentID, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$pull": bson.M{"officer_clubs": clubID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetFavorite adds or removes a club from the student's favorites.
func (s *Store) SetFavorite(ctx context.Context, studentID, clubID primitive.ObjectID, favorite bool) error {
	op := "$pull"
	if favorite {
		op = "$addToSet"
	}
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		op:     bson.M{"favorite_clubs": clubID},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// AddRSVP records an event on the student's RSVP cache.
func (s *Store) AddRSVP(ctx context.Context, studentID, eventID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$addToSet": bson.M{"rsvped_events": eventID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) RemoveRSVP(ctx context.Context, studentID, eventID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$pull": bson.M{"rsvped_events": eventID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// MarkAttended moves an event from the RSVP cache to the attended cache.
func (s *Store) MarkAttended(ctx context.Context, studentID, eventID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, studentID, bson.M{
		"$pull":     bson.M{"rsvped_events": eventID},
		"$addToSet": bson.M{"attended_events": eventID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

