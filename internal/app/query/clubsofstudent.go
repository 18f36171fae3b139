package query

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MyClubView is one club on a student's "my clubs" page.
type MyClubView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Role            string  `json:"role"`
	Members         int     `json:"members"`
	EngagementScore int     `json:"engagementScore"`
	NextEvent       string  `json:"nextEvent,omitempty"`
	LastActivity    string  `json:"lastActivity,omitempty"`
	MyRating        float64 `json:"myRating,omitempty"`
}

// ClubsOfStudent returns the student's clubs from every membership source,
// labeled with their highest role.
func (s *Service) ClubsOfStudent(ctx context.Context, studentID primitive.ObjectID) ([]MyClubView, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("student_not_found", "Student not found.")
		}
		return nil, err
	}
	roleRows, err := s.roles.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	roleByClub := make(map[primitive.ObjectID]models.OfficerRole, len(roleRows))
	roleClubIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleByClub[r.ClubID] = r
		roleClubIDs = append(roleClubIDs, r.ClubID)
	}

	ids := union(student.MyClubs, student.OfficerClubs, roleClubIDs)
	clubs, err := s.clubs.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]MyClubView, 0, len(clubs))
	for _, club := range clubs {
		view := MyClubView{
			ID:          club.ID.Hex(),
			Name:        club.Name,
			Description: club.Description,
			Role:        PositionMember,
			Members:     s.memberCountOf(ctx, club),
		}
		if r, ok := roleByClub[club.ID]; ok {
			view.Role = roleLabel(r.Role)
		} else if contains(club.PresidentIDs, studentID) {
			view.Role = PositionPresident
		} else if contains(club.Officers, studentID) {
			view.Role = PositionOfficer
		}

		events, err := s.events.ListByClub(ctx, club.ID)
		if err != nil {
			return nil, err
		}
		rate, _, _ := attendanceOf(events)
		fresh := freshnessScore(club.LastUpdatedAt, now)
		view.EngagementScore = engagementScore(rate, len(events), fresh)

		for _, e := range events {
			if e.StartTime.After(now) && e.Status != models.EventDraft {
				view.NextEvent = e.Title + " — " + clock.DateTime(e.StartTime)
				break
			}
		}
		if last := lastActivityAt(club, events); !last.IsZero() {
			view.LastActivity = clock.Ago(last, now)
		}

		for _, rv := range s.myReviews(ctx, club.ID, studentID) {
			view.MyRating = float64(rv.Rating)
		}

		views = append(views, view)
	}
	return views, nil
}

// memberCountOf counts the club's unique member union.
func (s *Service) memberCountOf(ctx context.Context, club models.Club) int {
	roleRows, err := s.roles.ListByClub(ctx, club.ID)
	if err != nil {
		roleRows = nil
	}
	roleIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleIDs = append(roleIDs, r.StudentID)
	}
	return len(union(club.MemberIDs, club.Officers, club.PresidentIDs, roleIDs))
}

// lastActivityAt picks the most recent of the club's profile edit and its
// latest event update.
func lastActivityAt(club models.Club, events []models.Event) time.Time {
	var last time.Time
	if club.LastUpdatedAt != nil {
		last = *club.LastUpdatedAt
	}
	for _, e := range events {
		if e.UpdatedAt.After(last) {
			last = e.UpdatedAt
		}
	}
	return last
}

func (s *Service) myReviews(ctx context.Context, clubID, studentID primitive.ObjectID) []models.Review {
	all, err := s.reviews.ListByClub(ctx, clubID)
	if err != nil {
		return nil
	}
	var out []models.Review
	for _, r := range all {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out
}

// OfficerClubView is one club where the student holds a leadership role.
type OfficerClubView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// OfficerClubsOfStudent returns the clubs where the student holds any
// officer-level role per the officer_roles relation. Always a subset of the
// student's clubs.
func (s *Service) OfficerClubsOfStudent(ctx context.Context, studentID primitive.ObjectID) ([]OfficerClubView, error) {
	roleRows, err := s.roles.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(roleRows))
	roleByClub := make(map[primitive.ObjectID]string, len(roleRows))
	for _, r := range roleRows {
		ids = append(ids, r.ClubID)
		roleByClub[r.ClubID] = r.Role
	}
	clubs, err := s.clubs.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]OfficerClubView, 0, len(clubs))
	for _, club := range clubs {
		views = append(views, OfficerClubView{
			ID:   club.ID.Hex(),
			Name: club.Name,
			Role: roleLabel(roleByClub[club.ID]),
		})
	}
	return views, nil
}
