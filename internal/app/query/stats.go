package query

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatsView is the student dashboard summary.
type StatsView struct {
	ClubsJoined     int `json:"clubsJoined"`
	UpcomingEvents  int `json:"upcomingEvents"`
	LeadershipRoles int `json:"leadershipRoles"`
	AvgEngagement   int `json:"avgEngagement"`
}

// StudentStats summarizes a student's involvement. Engagement credits five
// points per attended or RSVPed event, capped at 100; a student with no
// event history sits at the neutral 50.
func (s *Service) StudentStats(ctx context.Context, studentID primitive.ObjectID) (StatsView, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return StatsView{}, apperr.NotFound("student_not_found", "Student not found.")
		}
		return StatsView{}, err
	}
	roleRows, err := s.roles.ListByStudent(ctx, studentID)
	if err != nil {
		return StatsView{}, err
	}
	leadership := 0
	roleClubIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleClubIDs = append(roleClubIDs, r.ClubID)
		if models.IsLeadershipRole(r.Role) {
			leadership++
		}
	}

	clubsJoined := len(union(student.MyClubs, student.OfficerClubs, roleClubIDs))

	upcoming, err := s.events.ListUpcomingForStudent(ctx, studentID, time.Now().UTC())
	if err != nil {
		return StatsView{}, err
	}

	engagement := 50
	if activity := len(student.AttendedEvents) + len(student.RSVPedEvents); activity > 0 {
		engagement = activity * 5
		if engagement > 100 {
			engagement = 100
		}
	}

	return StatsView{
		ClubsJoined:     clubsJoined,
		UpcomingEvents:  len(upcoming),
		LeadershipRoles: leadership,
		AvgEngagement:   engagement,
	}, nil
}
