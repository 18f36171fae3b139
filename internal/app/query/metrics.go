package query

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MetricsView is the club analytics payload.
type MetricsView struct {
	Members              int     `json:"members"`
	AttendanceRate       float64 `json:"attendanceRate"`
	AttendanceRateChange float64 `json:"attendanceRateChange"`
	ProfileViews         int     `json:"profileViews"`
	FreshnessScore       int     `json:"freshnessScore"`
	EngagementScore      int     `json:"engagementScore"`
	EventAttendance      int     `json:"eventAttendance"`
}

// freshnessScore decays two points per day since the last profile edit.
// A club that has never edited its profile sits at the neutral 50.
func freshnessScore(lastUpdated *time.Time, now time.Time) int {
	if lastUpdated == nil || lastUpdated.IsZero() {
		return 50
	}
	score := 100 - 2*clock.DaysSince(*lastUpdated, now)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// engagementScore blends attendance, event volume, and profile freshness.
func engagementScore(attendanceRate float64, eventCount int, freshness int) int {
	eventScore := math.Min(100, float64(eventCount)*10)
	score := 0.5*attendanceRate + 0.3*eventScore + 0.2*float64(freshness)
	if score > 100 {
		return 100
	}
	return int(score)
}

// attendanceOf sums attended and registered across the given events and
// returns the rate as a percentage with one decimal.
//
// Marking attendance moves a student off rsvp_ids and onto attendee_ids, so
// everyone who registered is counted exactly once by summing both arrays.
// Summing rsvp_ids alone would shrink the denominator as people check in and
// push the rate past 100%.
func attendanceOf(events []models.Event) (rate float64, attended, registered int) {
	for _, e := range events {
		attended += len(e.AttendeeIDs)
		registered += len(e.RSVPIDs) + len(e.AttendeeIDs)
	}
	if registered == 0 {
		return 0, attended, registered
	}
	rate = math.Round(float64(attended)/float64(registered)*1000) / 10
	return rate, attended, registered
}

// ClubMetrics computes the club's analytics from its events, members and
// profile bookkeeping.
func (s *Service) ClubMetrics(ctx context.Context, clubID primitive.ObjectID) (MetricsView, error) {
	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return MetricsView{}, apperr.NotFound("club_not_found", "Club not found.")
		}
		return MetricsView{}, err
	}
	roleRows, err := s.roles.ListByClub(ctx, clubID)
	if err != nil {
		return MetricsView{}, err
	}
	roleIDs := make([]primitive.ObjectID, 0, len(roleRows))
	for _, r := range roleRows {
		roleIDs = append(roleIDs, r.StudentID)
	}
	members := len(union(club.MemberIDs, club.Officers, club.PresidentIDs, roleIDs))

	events, err := s.events.ListByClub(ctx, clubID)
	if err != nil {
		return MetricsView{}, err
	}

	now := time.Now().UTC()
	rate, attended, _ := attendanceOf(events)

	// Compare against the 30-to-60-day-ago window to show a trend.
	var recent, prior []models.Event
	for _, e := range events {
		switch {
		case e.StartTime.After(now.AddDate(0, 0, -30)) && e.StartTime.Before(now):
			recent = append(recent, e)
		case e.StartTime.After(now.AddDate(0, 0, -60)) && !e.StartTime.After(now.AddDate(0, 0, -30)):
			prior = append(prior, e)
		}
	}
	recentRate, _, _ := attendanceOf(recent)
	priorRate, _, _ := attendanceOf(prior)
	change := math.Round((recentRate-priorRate)*10) / 10

	fresh := freshnessScore(club.LastUpdatedAt, now)

	eventAttendance := 0
	if len(events) > 0 {
		eventAttendance = int(math.Round(float64(attended) / float64(len(events))))
	}

	return MetricsView{
		Members:              members,
		AttendanceRate:       rate,
		AttendanceRateChange: change,
		ProfileViews:         members * 5,
		FreshnessScore:       fresh,
		EngagementScore:      engagementScore(rate, len(events), fresh),
		EventAttendance:      eventAttendance,
	}, nil
}
