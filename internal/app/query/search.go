package query

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/clock"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListOptions filters and orders a club listing.
type ListOptions struct {
	Search       string
	Smart        bool // fuzzy title match on top of substring search
	VerifiedOnly bool
	SortBy       string // members | rating | activity | updated | discoverability
	Limit        int
	Offset       int
}

// ClubListItem is one row of the club directory.
type ClubListItem struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	Verified             bool    `json:"verified"`
	Members              int     `json:"members"`
	Rating               float64 `json:"rating"`
	ActivityScore        int     `json:"activityScore"`
	DiscoverabilityIndex int     `json:"discoverabilityIndex"`
	NextEvent            string  `json:"nextEvent,omitempty"`
	LastUpdated          string  `json:"lastUpdated,omitempty"`
}

// defaultRating is shown for clubs with no reviews yet.
const defaultRating = 4.6

// smartThreshold is the bigram similarity a title must reach to count as a
// fuzzy match for a query that fails substring matching.
const smartThreshold = 0.82

// ListClubs returns the club directory with per-club enrichment, filtered
// and sorted per opts.
func (s *Service) ListClubs(ctx context.Context, opts ListOptions) ([]ClubListItem, error) {
	clubs, err := s.clubs.List(ctx, "", 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := strings.TrimSpace(opts.Search)
	folded := text.Fold(query)

	var items []ClubListItem
	for _, club := range clubs {
		if opts.VerifiedOnly && !club.Verified {
			continue
		}
		if query != "" {
			haystack := text.Fold(club.Name + " " + club.Description + " " + club.Purpose)
			if !strings.Contains(haystack, folded) {
				if !opts.Smart || !fuzzyTitleMatch(folded, text.Fold(club.Name)) {
					continue
				}
			}
		}

		members := s.memberCountOf(ctx, club)

		rating := defaultRating
		if avg, _, ok, err := s.reviews.AverageRating(ctx, club.ID); err == nil && ok {
			rating = math.Round(avg*10) / 10
		}

		upcoming, err := s.events.UpcomingCountByClub(ctx, club.ID, now)
		if err != nil {
			return nil, err
		}
		activity := int(upcoming) * 8
		if club.Verified {
			activity += 10
		}
		if activity > 100 {
			activity = 100
		}
		bonus := members / 5
		if bonus > 40 {
			bonus = 40
		}
		discoverability := activity + bonus
		if discoverability > 100 {
			discoverability = 100
		}

		item := ClubListItem{
			ID:                   club.ID.Hex(),
			Name:                 club.Name,
			Description:          club.Description,
			Verified:             club.Verified,
			Members:              members,
			Rating:               rating,
			ActivityScore:        activity,
			DiscoverabilityIndex: discoverability,
		}
		if next := s.nextEventOf(ctx, club.ID, now); next != "" {
			item.NextEvent = next
		}
		if club.LastUpdatedAt != nil {
			item.LastUpdated = clock.Ago(*club.LastUpdatedAt, now)
		}
		items = append(items, item)
	}

	sortClubs(items, opts.SortBy)

	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil, nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items, nil
}

func (s *Service) nextEventOf(ctx context.Context, clubID primitive.ObjectID, now time.Time) string {
	events, err := s.events.ListByClub(ctx, clubID)
	if err != nil {
		return ""
	}
	for _, e := range events {
		if e.StartTime.After(now) && e.Status != models.EventDraft {
			return e.Title + " — " + clock.DateTime(e.StartTime)
		}
	}
	return ""
}

func sortClubs(items []ClubListItem, by string) {
	less := func(i, j int) bool { return items[i].Members > items[j].Members }
	switch by {
	case "rating":
		less = func(i, j int) bool { return items[i].Rating > items[j].Rating }
	case "activity":
		less = func(i, j int) bool { return items[i].ActivityScore > items[j].ActivityScore }
	case "updated":
		// Clubs with a LastUpdated value come first; ties keep member order.
		less = func(i, j int) bool {
			if (items[i].LastUpdated != "") != (items[j].LastUpdated != "") {
				return items[i].LastUpdated != ""
			}
			return items[i].Members > items[j].Members
		}
	case "discoverability":
		less = func(i, j int) bool { return items[i].DiscoverabilityIndex > items[j].DiscoverabilityIndex }
	}
	sort.SliceStable(items, less)
}

// fuzzyTitleMatch compares normalized token sets with character-bigram
// similarity, so "chess clb" still finds "Chess Club".
func fuzzyTitleMatch(query, title string) bool {
	if query == "" || title == "" {
		return false
	}
	if bigramSimilarity(query, title) >= smartThreshold {
		return true
	}
	// Token-wise: every query token must fuzzily match some title token.
	qTokens := strings.Fields(query)
	tTokens := strings.Fields(title)
	if len(qTokens) == 0 {
		return false
	}
	for _, q := range qTokens {
		matched := false
		for _, t := range tTokens {
			if strings.Contains(t, q) || bigramSimilarity(q, t) >= smartThreshold {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// bigramSimilarity is the Dice coefficient over character bigrams.
func bigramSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		if a == b {
			return 1
		}
		return 0
	}
	overlap := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(overlap) / float64(total)
}

func bigrams(s string) map[string]int {
	out := map[string]int{}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}
