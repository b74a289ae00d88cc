package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/history"
	"github.com/Zentoboo/dck/internal/store"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func entry(state domain.State, due time.Time, difficulty float64) store.Entry {
	return store.Entry{
		Card: domain.CardState{
			Memory: domain.Memory{State: state, Due: due, Difficulty: difficulty},
		},
	}
}

func TestForDocument(t *testing.T) {
	entries := []store.Entry{
		entry(domain.StateNew, now, 0),
		entry(domain.StateLearning, now.Add(-time.Hour), 4),
		entry(domain.StateReview, now.AddDate(0, 0, 7), 6),
		entry(domain.StateReview, now.Add(-24*time.Hour), 8),
		entry(domain.StateRelearning, now, 7),
	}

	stats := ForDocument("math.md", entries, now)

	if stats.File != "math.md" || stats.TotalCards != 5 {
		t.Errorf("Unexpected identity fields: %+v", stats)
	}
	if stats.NewCount != 1 || stats.LearningCount != 1 || stats.ReviewCount != 2 || stats.RelearnCount != 1 {
		t.Errorf("Unexpected state counts: %+v", stats)
	}
	// Everything except the card due in a week counts as due, including the
	// ones due exactly now.
	if stats.DueCount != 4 {
		t.Errorf("Expected 4 due cards, got %d", stats.DueCount)
	}
	// The never-rated card has no difficulty and stays out of the average.
	if want := (4.0 + 6 + 8 + 7) / 4; stats.AvgDifficulty != want {
		t.Errorf("Expected average difficulty %v, got %v", want, stats.AvgDifficulty)
	}
}

func TestForDocumentEmpty(t *testing.T) {
	stats := ForDocument("empty.md", nil, now)
	if stats.TotalCards != 0 || stats.AvgDifficulty != 0 {
		t.Errorf("Expected zeroed stats, got %+v", stats)
	}
}

func TestAggregate(t *testing.T) {
	docs := []DocumentStats{
		{TotalCards: 4, DueCount: 2, NewCount: 1, ReviewCount: 2, AvgDifficulty: 5},
		{TotalCards: 6, DueCount: 1, NewCount: 3, ReviewCount: 1, AvgDifficulty: 7},
		{TotalCards: 2, NewCount: 2}, // all new, no difficulty yet
	}

	overall := Aggregate(docs)

	if overall.TotalCards != 12 || overall.DueCards != 3 || overall.NewCards != 6 {
		t.Errorf("Unexpected totals: %+v", overall)
	}
	if overall.AvgDifficulty != 6 {
		t.Errorf("Expected average difficulty 6, got %v", overall.AvgDifficulty)
	}
	if want := 3.0 / 12 * 100; overall.RetentionRate != want {
		t.Errorf("Expected retention %v, got %v", want, overall.RetentionRate)
	}
}

func TestAggregateEmpty(t *testing.T) {
	overall := Aggregate(nil)
	if overall.RetentionRate != 0 || overall.AvgDifficulty != 0 {
		t.Errorf("Expected zeroed aggregate, got %+v", overall)
	}
}

func TestFromSessions(t *testing.T) {
	day1 := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	sessions := []history.SessionRow{
		{
			StartedAt:     day1,
			EndedAt:       day1.Add(10 * time.Minute),
			CardsReviewed: 4,
			Ratings:       domain.RatingCounts{Again: 1, Good: 2, Easy: 1},
		},
		{
			StartedAt:     day1.Add(12 * time.Hour),
			EndedAt:       day1.Add(12*time.Hour + 5*time.Minute),
			CardsReviewed: 2,
			Ratings:       domain.RatingCounts{Hard: 1, Good: 1},
		},
		{
			StartedAt:     day2,
			EndedAt:       day2.Add(15 * time.Minute),
			CardsReviewed: 6,
			Ratings:       domain.RatingCounts{Good: 4, Easy: 2},
		},
	}

	stats := FromSessions(sessions)

	if stats.TotalSessions != 3 || stats.TotalCardsReviewed != 12 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if stats.TotalStudySeconds != 30*60 {
		t.Errorf("Expected 1800 study seconds, got %d", stats.TotalStudySeconds)
	}
	if stats.AvgCardsPerSession != 4 {
		t.Errorf("Expected 4 cards per session, got %v", stats.AvgCardsPerSession)
	}
	want := domain.RatingCounts{Again: 1, Hard: 1, Good: 7, Easy: 3}
	if stats.Ratings != want {
		t.Errorf("Expected histogram %+v, got %+v", want, stats.Ratings)
	}
	if wantAcc := 10.0 / 12 * 100; math.Abs(stats.AccuracyRate-wantAcc) > 1e-9 {
		t.Errorf("Expected accuracy %v, got %v", wantAcc, stats.AccuracyRate)
	}
	// Two sessions fall on the same calendar day.
	if stats.StudyDays != 2 {
		t.Errorf("Expected 2 study days, got %d", stats.StudyDays)
	}
}

func TestFromSessionsEmpty(t *testing.T) {
	stats := FromSessions(nil)
	if stats.AvgCardsPerSession != 0 || stats.AccuracyRate != 0 || stats.StudyDays != 0 {
		t.Errorf("Expected zeroed history stats, got %+v", stats)
	}
}
