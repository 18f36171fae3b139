// internal/app/store/clubs/clubstore.go
package clubstore

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

var ErrDuplicateClubName = errors.New("a club with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clubs")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	var c models.Club
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Club{}, err
	}
	return c, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (models.Club, error) {
	var c models.Club
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&c); err != nil {
		return models.Club{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Club) (models.Club, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	if c.Status == "" {
		c.Status = "active"
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, c)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Club{}, ErrDuplicateClubName
		}
		return models.Club{}, err
	}
	return c, nil
}

// List returns clubs in name order. An empty status means all statuses.
func (s *Store) List(ctx context.Context, status string, limit int64) ([]models.Club, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Club
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByName returns clubs whose folded name contains the folded query,
// name order, capped at limit.
func (s *Store) SearchByName(ctx context.Context, query string, limit int64) ([]models.Club, error) {
	folded := text.Fold(query)
	if folded == "" {
		return nil, nil
	}
	filter := bson.M{"name_ci": bson.M{"$regex": regexp.QuoteMeta(folded)}}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Club
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMany fetches the clubs with the given IDs, in no particular order.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Club
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileUpdate carries the editable profile fields. Nil pointers leave the
// stored value alone; callers sanitize text before passing it here.
type ProfileUpdate struct {
	Description        *string
	Purpose            *string
	Activities         *string
	MediaURLs          *[]string
	ContactEmail       *string
	ContactPhone       *string
	RequestInfoFormURL *string
}

// UpdateProfile applies the given fields and stamps the profile-freshness
// markers (last_updated_at, update_recency_badge).
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	now := time.Now().UTC()
	set := bson.M{
		"updated_at":           now,
		"last_updated_at":      now,
		"update_recency_badge": "Updated today",
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Purpose != nil {
		set["purpose"] = *upd.Purpose
	}
	if upd.Activities != nil {
		set["activities"] = *upd.Activities
	}
	if upd.MediaURLs != nil {
		set["media_urls"] = *upd.MediaURLs
	}
	if upd.ContactEmail != nil {
		set["contact_email"] = *upd.ContactEmail
	}
	if upd.ContactPhone != nil {
		set["contact_phone"] = *upd.ContactPhone
	}
	if upd.RequestInfoFormURL != nil {
		set["request_info_form_url"] = *upd.RequestInfoFormURL
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

// AddMember records membership on the club's cache array.
func (s *Store) AddMember(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, clubID, bson.M{
		"$addToSet": bson.M{"member_ids": studentID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveMember clears the student from all of the club's cache arrays.
func (s *Store) RemoveMember(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, clubID, bson.M{
		"$pull": bson.M{
			"member_ids":    studentID,
			"officers":      studentID,
			"president_ids": studentID,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) AddOfficer(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, clubID, bson.M{
		"$addToSet": bson.M{"officers": studentID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) RemoveOfficer(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, clubID, bson.M{
		"$pull": bson.M{"officers": studentID, "president_ids": studentID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetPresident replaces the president cache with the single given student
// and makes sure they are also listed as an officer and a member.
func (s *Store) SetPresident(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, clubID, bson.M{
		"$set":      bson.M{"president_ids": []primitive.ObjectID{studentID}, "updated_at": time.Now().UTC()},
		"$addToSet": bson.M{"officers": studentID, "member_ids": studentID},
	})
	return err
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
