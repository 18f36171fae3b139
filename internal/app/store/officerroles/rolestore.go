// internal/app/store/officerroles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the source-of-truth relation for club roles. The cache arrays on
// clubs and students mirror it; the ledger keeps them in lockstep.
type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateRole means a role row already exists for (club, student).
	ErrDuplicateRole = errors.New("student already holds a role in this club")
	// ErrPresidentExists means the partial unique index rejected a second
	// president for the club.
	ErrPresidentExists = errors.New("club already has a president")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("officer_roles")}
}

// Create inserts a role row. The president partial index and the
// (club, student) unique index both surface as duplicate-key errors; the
// role value disambiguates which invariant was violated.
func (s *Store) Create(ctx context.Context, clubID, studentID primitive.ObjectID, role string) (models.OfficerRole, error) {
	rec := models.OfficerRole{
		ID:         primitive.NewObjectID(),
		ClubID:     clubID,
		StudentID:  studentID,
		Role:       role,
		AssignedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, rec)
	if err != nil {
		if wafflemongo.IsDup(err) {
			if role == models.RolePresident {
				// Could be either index; check which row is in the way.
				if _, getErr := s.Get(ctx, clubID, studentID); getErr == nil {
					return models.OfficerRole{}, ErrDuplicateRole
				}
				return models.OfficerRole{}, ErrPresidentExists
			}
			return models.OfficerRole{}, ErrDuplicateRole
		}
		return models.OfficerRole{}, err
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, clubID, studentID primitive.ObjectID) (models.OfficerRole, error) {
	var rec models.OfficerRole
	err := s.c.FindOne(ctx, bson.M{"club_id": clubID, "student_id": studentID}).Decode(&rec)
	if err != nil {
		return models.OfficerRole{}, err
	}
	return rec, nil
}

// UpdateRole changes the role on an existing row. The president partial
// index still applies.
func (s *Store) UpdateRole(ctx context.Context, clubID, studentID primitive.ObjectID, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"club_id": clubID, "student_id": studentID},
		bson.M{"$set": bson.M{"role": role, "assigned_at": time.Now().UTC()}},
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrPresidentExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the role row for (club, student). Returns the number of
// documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, clubID, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"club_id": clubID, "student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByClub returns all role rows for a club, presidents first.
func (s *Store) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.OfficerRole, error) {
	opts := options.Find().SetSort(bson.D{{Key: "role", Value: -1}, {Key: "student_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OfficerRole
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStudent returns all role rows held by a student.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.OfficerRole, error) {
	opts := options.Find().SetSort(bson.D{{Key: "club_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OfficerRole
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PresidentOf returns the club's president row, if any.
func (s *Store) PresidentOf(ctx context.Context, clubID primitive.ObjectID) (models.OfficerRole, bool, error) {
	var rec models.OfficerRole
	err := s.c.FindOne(ctx, bson.M{"club_id": clubID, "role": models.RolePresident}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OfficerRole{}, false, nil
		}
		return models.OfficerRole{}, false, err
	}
	return rec, true, nil
}

// IsPresident reports whether the student is the club's president.
func (s *Store) IsPresident(ctx context.Context, clubID, studentID primitive.ObjectID) (bool, error) {
	rec, ok, err := s.PresidentOf(ctx, clubID)
	if err != nil || !ok {
		return false, err
	}
	return rec.StudentID == studentID, nil
}
