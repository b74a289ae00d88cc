// Package metrics derives read-only statistics from reconciled card
// snapshots and archived session history. Nothing here mutates state.
package metrics

import (
	"time"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/history"
	"github.com/Zentoboo/dck/internal/scheduler"
	"github.com/Zentoboo/dck/internal/store"
)

// DocumentStats summarizes one document's reconciled cards.
type DocumentStats struct {
	File          string
	TotalCards    int
	NewCount      int
	LearningCount int
	ReviewCount   int
	RelearnCount  int
	DueCount      int
	AvgDifficulty float64
}

// ForDocument computes the per-state counts, due count and average
// difficulty for one document's entries. Cards that have never been rated
// carry no difficulty yet and are excluded from the average.
func ForDocument(file string, entries []store.Entry, now time.Time) DocumentStats {
	stats := DocumentStats{File: file, TotalCards: len(entries)}

	var difficultySum float64
	var difficultyCount int
	for _, e := range entries {
		switch e.Card.Memory.State {
		case domain.StateNew:
			stats.NewCount++
		case domain.StateLearning:
			stats.LearningCount++
		case domain.StateReview:
			stats.ReviewCount++
		case domain.StateRelearning:
			stats.RelearnCount++
		}
		if scheduler.IsDue(e.Card, now) {
			stats.DueCount++
		}
		if e.Card.Memory.Difficulty > 0 {
			difficultySum += e.Card.Memory.Difficulty
			difficultyCount++
		}
	}
	if difficultyCount > 0 {
		stats.AvgDifficulty = difficultySum / float64(difficultyCount)
	}
	return stats
}

// OverallStats aggregates document stats across a selection.
type OverallStats struct {
	TotalCards    int
	DueCards      int
	NewCards      int
	AvgDifficulty float64
	// RetentionRate is the share of cards that have matured into the
	// Review state, in percent.
	RetentionRate float64
}

// Aggregate sums document stats and derives the retention rate.
func Aggregate(docs []DocumentStats) OverallStats {
	var overall OverallStats
	var reviewCards int
	var difficultySum float64
	var difficultyDocs int

	for _, d := range docs {
		overall.TotalCards += d.TotalCards
		overall.DueCards += d.DueCount
		overall.NewCards += d.NewCount
		reviewCards += d.ReviewCount
		if d.AvgDifficulty > 0 {
			difficultySum += d.AvgDifficulty
			difficultyDocs++
		}
	}
	if difficultyDocs > 0 {
		overall.AvgDifficulty = difficultySum / float64(difficultyDocs)
	}
	if overall.TotalCards > 0 {
		overall.RetentionRate = float64(reviewCards) / float64(overall.TotalCards) * 100
	}
	return overall
}

// HistoryStats aggregates archived sessions.
type HistoryStats struct {
	TotalSessions      int
	TotalCardsReviewed int
	TotalStudySeconds  int
	AvgCardsPerSession float64
	Ratings            domain.RatingCounts
	// AccuracyRate is (good+easy)/rated, in percent.
	AccuracyRate float64
	// StudyDays is the count of distinct calendar days with at least one
	// session.
	StudyDays int
}

// FromSessions derives overall study statistics from the session history.
func FromSessions(sessions []history.SessionRow) HistoryStats {
	var stats HistoryStats
	days := make(map[string]struct{})

	for _, s := range sessions {
		stats.TotalSessions++
		stats.TotalCardsReviewed += s.CardsReviewed
		stats.TotalStudySeconds += int(s.EndedAt.Sub(s.StartedAt).Seconds())
		stats.Ratings.Again += s.Ratings.Again
		stats.Ratings.Hard += s.Ratings.Hard
		stats.Ratings.Good += s.Ratings.Good
		stats.Ratings.Easy += s.Ratings.Easy
		days[s.StartedAt.Format("2006-01-02")] = struct{}{}
	}
	stats.StudyDays = len(days)

	if stats.TotalSessions > 0 {
		stats.AvgCardsPerSession = float64(stats.TotalCardsReviewed) / float64(stats.TotalSessions)
	}
	if rated := stats.Ratings.Total(); rated > 0 {
		stats.AccuracyRate = float64(stats.Ratings.Good+stats.Ratings.Easy) / float64(rated) * 100
	}
	return stats
}
