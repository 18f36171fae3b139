package query

import (
	"testing"
	"time"
)

func TestBigramSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"chess club", "chess club", 1, 1},
		{"chess clb", "chess club", 0.82, 1},
		{"robotics", "chess club", 0, 0.3},
		{"", "", 1, 1},
		{"a", "b", 0, 0},
	}
	for _, tt := range tests {
		got := bigramSimilarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("bigramSimilarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestFuzzyTitleMatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		title string
		want  bool
	}{
		{"exact", "chess club", "chess club", true},
		{"misspelled", "chess clb", "chess club", true},
		{"token subset", "chess", "chess club", true},
		{"unrelated", "robotics", "chess club", false},
		{"empty query", "", "chess club", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fuzzyTitleMatch(tt.query, tt.title); got != tt.want {
				t.Errorf("fuzzyTitleMatch(%q, %q) = %v, want %v", tt.query, tt.title, got, tt.want)
			}
		})
	}
}

func TestSortClubs(t *testing.T) {
	items := []ClubListItem{
		{Name: "A", Members: 5, Rating: 4.9, ActivityScore: 10},
		{Name: "B", Members: 50, Rating: 3.0, ActivityScore: 90},
		{Name: "C", Members: 20, Rating: 4.5, ActivityScore: 40},
	}

	sortClubs(items, "members")
	if items[0].Name != "B" || items[2].Name != "A" {
		t.Errorf("members sort order wrong: %v %v %v", items[0].Name, items[1].Name, items[2].Name)
	}

	sortClubs(items, "rating")
	if items[0].Name != "A" {
		t.Errorf("rating sort should put A first, got %s", items[0].Name)
	}

	sortClubs(items, "activity")
	if items[0].Name != "B" {
		t.Errorf("activity sort should put B first, got %s", items[0].Name)
	}
}

func TestFreshnessScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if got := freshnessScore(nil, now); got != 50 {
		t.Errorf("never-updated freshness = %d, want 50", got)
	}

	today := now.Add(-time.Hour)
	if got := freshnessScore(&today, now); got != 100 {
		t.Errorf("same-day freshness = %d, want 100", got)
	}

	tenDays := now.AddDate(0, 0, -10)
	if got := freshnessScore(&tenDays, now); got != 80 {
		t.Errorf("10-day freshness = %d, want 80", got)
	}

	old := now.AddDate(0, 0, -90)
	if got := freshnessScore(&old, now); got != 0 {
		t.Errorf("90-day freshness = %d, want 0", got)
	}
}

func TestEngagementScore(t *testing.T) {
	// 80% attendance, 5 events, freshness 100:
	// .5*80 + .3*50 + .2*100 = 40 + 15 + 20 = 75
	if got := engagementScore(80, 5, 100); got != 75 {
		t.Errorf("engagementScore = %d, want 75", got)
	}
	// Capped at 100.
	if got := engagementScore(100, 100, 100); got != 100 {
		t.Errorf("engagementScore cap = %d, want 100", got)
	}
	if got := engagementScore(0, 0, 0); got != 0 {
		t.Errorf("engagementScore zero = %d, want 0", got)
	}
}
