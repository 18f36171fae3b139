package query

import (
	"context"
	"errors"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemberView is one row of a club's member list.
type MemberView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	JoinDate       string `json:"joinDate,omitempty"`
	EventsAttended int    `json:"eventsAttended"`
}

// MembersOfClub returns every member of the club, whichever representation
// recorded them, presidents first.
func (s *Service) MembersOfClub(ctx context.Context, clubID primitive.ObjectID) ([]MemberView, error) {
	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("club_not_found", "Club not found.")
		}
		return nil, err
	}
	roleRows, err := s.roles.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	roleByStudent := make(map[primitive.ObjectID]models.OfficerRole, len(roleRows))
	roleIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleByStudent[r.StudentID] = r
		roleIDs = append(roleIDs, r.StudentID)
	}

	ids := union(club.PresidentIDs, club.Officers, club.MemberIDs, roleIDs)
	studentsByID := map[primitive.ObjectID]models.Student{}
	fetched, err := s.students.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, st := range fetched {
		studentsByID[st.ID] = st
	}

	views := make([]MemberView, 0, len(ids))
	for _, id := range ids {
		st, ok := studentsByID[id]
		if !ok {
			// Stale cache entry pointing at a deleted student; skip it.
			continue
		}
		position := PositionMember
		joinDate := ""
		if r, ok := roleByStudent[id]; ok {
			position = roleLabel(r.Role)
			joinDate = clock.Date(r.AssignedAt)
		} else if contains(club.PresidentIDs, id) {
			position = PositionPresident
		} else if contains(club.Officers, id) {
			position = PositionOfficer
		}
		views = append(views, MemberView{
			ID:             st.ID.Hex(),
			Name:           st.Name,
			Email:          st.Email,
			Position:       position,
			JoinDate:       joinDate,
			EventsAttended: len(st.AttendedEvents),
		})
	}
	sortByPosition(views)
	return views, nil
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
