// Package scheduler computes card state transitions with the FSRS memory
// model. All functions are pure with respect to their inputs; the clock is
// always passed in.
package scheduler

import (
	"math"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"github.com/Zentoboo/dck/internal/domain"
)

// Engine applies ratings to card state. It holds the FSRS parameters and is
// safe to share across sessions.
type Engine struct {
	params fsrs.Parameters
}

// New returns an engine with the default FSRS-4.5 parameters.
func New() *Engine {
	return &Engine{params: fsrs.DefaultParam()}
}

// NewCard creates the state for a question that has never been reviewed.
// A fresh card is immediately due.
func NewCard(questionID, question string, now time.Time) domain.CardState {
	return domain.CardState{
		QuestionID: questionID,
		Question:   question,
		Memory: domain.Memory{
			State:      domain.StateNew,
			LastReview: now,
			Due:        now,
		},
		Stats: domain.Stats{CreatedAt: now},
	}
}

// Review returns the card's state after applying the rating at the given
// time. Reps always grows by exactly one; lapses grow only on Again. Stats
// counters are left untouched, callers own those. Ratings outside the four
// accepted values are clamped rather than rejected, so one bad input never
// blocks a session.
func (e *Engine) Review(card domain.CardState, rating domain.Rating, now time.Time) domain.CardState {
	if rating < domain.Again {
		rating = domain.Again
	}
	if rating > domain.Easy {
		rating = domain.Easy
	}

	sanitized := toFSRS(card.Memory, now)
	rec := e.params.Repeat(sanitized, now)[fsrs.Rating(rating)]

	next := card
	next.Memory = fromFSRS(rec.Card)

	// The counters are contractual, not model-internal: reps grows by
	// exactly one per review and lapses exactly on Again.
	next.Memory.Reps = int(sanitized.Reps) + 1
	next.Memory.Lapses = int(sanitized.Lapses)
	if rating == domain.Again {
		next.Memory.Lapses++
	}
	return next
}

// IsDue reports whether the card's scheduled review time has passed.
func IsDue(card domain.CardState, now time.Time) bool {
	return !card.Memory.Due.After(now)
}

// IsNew reports whether the card has never left the New state.
func IsNew(card domain.CardState) bool {
	return card.Memory.State == domain.StateNew
}

// DaysUntilDue returns the whole days until the card is due, rounded up.
// Day math rounds with the ceiling everywhere, so "due in 0.2 days" reads as
// "due in 1 day", never "due now". Overdue cards yield values <= 0.
func DaysUntilDue(card domain.CardState, now time.Time) int {
	return int(math.Ceil(card.Memory.Due.Sub(now).Hours() / 24))
}

// toFSRS converts stored memory state into an FSRS card, clamping anything a
// corrupt sidecar file could have produced. Garbage in must not crash a
// review: NaN and negative values reset to zero, zero timestamps to now.
func toFSRS(m domain.Memory, now time.Time) fsrs.Card {
	stability := m.Stability
	if math.IsNaN(stability) || math.IsInf(stability, 0) || stability < 0 {
		stability = 0
	}
	difficulty := m.Difficulty
	if math.IsNaN(difficulty) || math.IsInf(difficulty, 0) || difficulty < 0 {
		difficulty = 0
	}

	state := m.State
	if state < domain.StateNew || state > domain.StateRelearning {
		state = domain.StateNew
	}

	lastReview := m.LastReview
	if lastReview.IsZero() {
		lastReview = now
	}
	due := m.Due
	if due.IsZero() {
		due = now
	}

	return fsrs.Card{
		Due:           due,
		Stability:     stability,
		Difficulty:    difficulty,
		ElapsedDays:   uint64(max(m.ElapsedDays, 0)),
		ScheduledDays: uint64(max(m.ScheduledDays, 0)),
		Reps:          uint64(max(m.Reps, 0)),
		Lapses:        uint64(max(m.Lapses, 0)),
		State:         fsrs.State(state),
		LastReview:    lastReview,
	}
}

func fromFSRS(c fsrs.Card) domain.Memory {
	return domain.Memory{
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   int(c.ElapsedDays),
		ScheduledDays: int(c.ScheduledDays),
		Reps:          int(c.Reps),
		Lapses:        int(c.Lapses),
		State:         domain.State(c.State),
		LastReview:    c.LastReview,
		Due:           c.Due,
	}
}
