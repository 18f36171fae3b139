package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ActivityItem is one row of the recent-activity feed.
type ActivityItem struct {
	EventID   string `json:"eventId"`
	ClubID    string `json:"clubId"`
	ClubName  string `json:"clubName"`
	Title     string `json:"title"`
	When      string `json:"when"`    // "2d ago" style
	StartsAt  string `json:"startsAt"` // presentation date-time
	IsPast    bool   `json:"isPast"`
	IsRsvped  bool   `json:"isRsvped"`
	Attending int    `json:"attending"`
}

// studentClubIDs unions the student's club sources into a single id list.
func (s *Service) studentClubIDs(ctx context.Context, studentID primitive.ObjectID) (models.Student, []primitive.ObjectID, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Student{}, nil, apperr.NotFound("student_not_found", "Student not found.")
		}
		return models.Student{}, nil, err
	}
	roleRows, err := s.roles.ListByStudent(ctx, studentID)
	if err != nil {
		return models.Student{}, nil, err
	}
	roleClubIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleClubIDs = append(roleClubIDs, r.ClubID)
	}
	return student, union(student.MyClubs, student.OfficerClubs, roleClubIDs), nil
}

// RecentActivity returns events across the student's clubs from the last 30
// days plus anything upcoming, newest-updated first, capped at 10.
func (s *Service) RecentActivity(ctx context.Context, studentID primitive.ObjectID) ([]ActivityItem, error) {
	student, clubIDs, err := s.studentClubIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	clubs, err := s.clubs.GetMany(ctx, clubIDs)
	if err != nil {
		return nil, err
	}
	nameByClub := make(map[primitive.ObjectID]string, len(clubs))
	for _, c := range clubs {
		nameByClub[c.ID] = c.Name
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)

	var picked []models.Event
	for _, c := range clubs {
		events, err := s.events.ListByClub(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if e.Status == models.EventDraft {
				continue
			}
			if e.StartTime.After(cutoff) {
				picked = append(picked, e)
			}
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].UpdatedAt.After(picked[j].UpdatedAt)
	})
	if len(picked) > 10 {
		picked = picked[:10]
	}

	items := make([]ActivityItem, 0, len(picked))
	for _, e := range picked {
		items = append(items, ActivityItem{
			EventID:   e.ID.Hex(),
			ClubID:    e.ClubID.Hex(),
			ClubName:  nameByClub[e.ClubID],
			Title:     e.Title,
			When:      clock.Ago(e.UpdatedAt, now),
			StartsAt:  clock.DateTime(e.StartTime),
			IsPast:    e.StartTime.Before(now),
			IsRsvped:  contains(e.RSVPIDs, student.ID),
			Attending: len(e.RSVPIDs) + len(e.AttendeeIDs),
		})
	}
	return items, nil
}

// UpcomingEventView is one row of a student's upcoming-events page.
type UpcomingEventView struct {
	ID       string `json:"id"`
	ClubID   string `json:"clubId"`
	ClubName string `json:"clubName"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	IsRsvped bool   `json:"isRsvped"`
}

// UpcomingEvents returns the next 20 events across the student's clubs,
// soonest first, with an RSVP flag per event.
func (s *Service) UpcomingEvents(ctx context.Context, studentID primitive.ObjectID) ([]UpcomingEventView, error) {
	student, clubIDs, err := s.studentClubIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	clubs, err := s.clubs.GetMany(ctx, clubIDs)
	if err != nil {
		return nil, err
	}
	nameByClub := make(map[primitive.ObjectID]string, len(clubs))
	for _, c := range clubs {
		nameByClub[c.ID] = c.Name
	}

	now := time.Now().UTC()
	var upcoming []models.Event
	for _, c := range clubs {
		events, err := s.events.ListByClub(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if e.Status != models.EventDraft && e.StartTime.After(now) {
				upcoming = append(upcoming, e)
			}
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})
	if len(upcoming) > 20 {
		upcoming = upcoming[:20]
	}

	views := make([]UpcomingEventView, 0, len(upcoming))
	for _, e := range upcoming {
		views = append(views, UpcomingEventView{
			ID:       e.ID.Hex(),
			ClubID:   e.ClubID.Hex(),
			ClubName: nameByClub[e.ClubID],
			Title:    e.Title,
			Location: e.Location,
			Date:     clock.Date(e.StartTime),
			Time:     clock.Clock(e.StartTime),
			IsRsvped: contains(e.RSVPIDs, student.ID),
		})
	}
	return views, nil
}
