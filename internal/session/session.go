// Package session drives one bounded interactive review pass over a fixed
// set of cards: queue construction, rating, skip, undo, and session
// completion.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/extract"
	"github.com/Zentoboo/dck/internal/scheduler"
	"github.com/Zentoboo/dck/internal/store"
)

// State is the session lifecycle phase.
type State int

const (
	Selecting State = iota
	Reviewing
	Complete
)

// Mode controls which cards enter the queue.
type Mode int

const (
	// ReviewMode selects due and new cards only.
	ReviewMode Mode = iota
	// StudyMode selects every card regardless of schedule.
	StudyMode
)

// Ordering is the queue ordering policy applied once at session start.
type Ordering int

const (
	Random Ordering = iota
	Sequential
	HardestFirst
	EasiestFirst
)

// ParseMode maps a config string to a Mode. Unknown values fall back to
// ReviewMode.
func ParseMode(s string) Mode {
	if s == "study" {
		return StudyMode
	}
	return ReviewMode
}

// ParseOrdering maps a config string to an Ordering. Unknown values fall
// back to Random.
func ParseOrdering(s string) Ordering {
	switch s {
	case "sequential":
		return Sequential
	case "hardest-first":
		return HardestFirst
	case "easiest-first":
		return EasiestFirst
	default:
		return Random
	}
}

// Document identifies one selected source document.
type Document struct {
	Name string
	Path string
}

// ReviewCard is one queue slot: the parsed question plus its working card
// state and the document it persists to.
type ReviewCard struct {
	Question domain.Question
	Card     domain.CardState
	DocPath  string
}

// DocumentReader supplies document text. The session only reads documents;
// it never manages files.
type DocumentReader interface {
	ReadText(path string) (string, error)
}

// Renderer formats a completed session into a human-readable transcript and
// names its archive file.
type Renderer interface {
	Render(summary domain.SessionSummary, records []domain.SessionCardRecord) string
	Filename(start time.Time) string
}

// Archiver persists a rendered transcript under the session archive
// convention.
type Archiver interface {
	SaveSession(filename, content string) (string, error)
}

// HistorySink records completed sessions for later metrics aggregation.
type HistorySink interface {
	RecordSession(summary domain.SessionSummary, records []domain.SessionCardRecord) error
}

// Config wires an orchestrator's collaborators. Store, Engine and Docs are
// required; Renderer, Archiver and History are optional and skipped when nil.
type Config struct {
	Store    *store.Store
	Engine   *scheduler.Engine
	Docs     DocumentReader
	Renderer Renderer
	Archiver Archiver
	History  HistorySink
	Logger   *slog.Logger
	Now      func() time.Time
	Rand     *rand.Rand
}

type undoEntry struct {
	index    int
	record   domain.SessionCardRecord
	previous domain.CardState
}

// Orchestrator owns one session's queue, records and undo stack. It is not
// safe for concurrent use; ratings are applied strictly in call order.
type Orchestrator struct {
	cfg   Config
	log   *slog.Logger
	state State

	queue   []ReviewCard
	index   int
	total   int
	files   []string
	start   time.Time
	records []domain.SessionCardRecord
	undo    []undoEntry
}

// New returns an orchestrator in the Selecting state.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Engine == nil || cfg.Docs == nil {
		return nil, errors.New("session: store, engine and document reader are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{cfg: cfg, log: log, state: Selecting}, nil
}

// State returns the current lifecycle phase.
func (o *Orchestrator) State() State { return o.state }

// Start builds the queue from the selected documents and transitions to
// Reviewing. The queue size is fixed for the whole session: skips requeue
// within the same multiset, never grow it. An empty selection result leaves
// the session Complete immediately.
func (o *Orchestrator) Start(docs []Document, mode Mode, order Ordering) error {
	if o.state != Selecting {
		return fmt.Errorf("session: cannot start from state %d", o.state)
	}
	now := o.cfg.Now()

	var queue []ReviewCard
	for _, doc := range docs {
		text, err := o.cfg.Docs.ReadText(doc.Path)
		if err != nil {
			return fmt.Errorf("read document %s: %w", doc.Path, err)
		}
		questions := extract.Questions(text, doc.Name)

		persisted, err := o.cfg.Store.Load(doc.Path)
		if err != nil {
			return fmt.Errorf("load cards for %s: %w", doc.Path, err)
		}

		for _, entry := range store.Reconcile(questions, persisted.Cards, now) {
			if mode == StudyMode || scheduler.IsDue(entry.Card, now) || scheduler.IsNew(entry.Card) {
				queue = append(queue, ReviewCard{
					Question: entry.Question,
					Card:     entry.Card,
					DocPath:  doc.Path,
				})
			}
		}
		o.files = append(o.files, doc.Name)
	}

	o.applyOrdering(queue, order)

	o.queue = queue
	o.total = len(queue)
	o.index = 0
	o.start = now
	o.log.Info("session started", "files", len(docs), "cards", o.total, "mode", mode, "order", order)

	if o.total == 0 {
		o.state = Complete
		return nil
	}
	o.state = Reviewing
	return nil
}

func (o *Orchestrator) applyOrdering(queue []ReviewCard, order Ordering) {
	switch order {
	case Random:
		o.cfg.Rand.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
	case Sequential:
		// Per-file parse order, as built.
	case HardestFirst:
		sort.SliceStable(queue, func(i, j int) bool {
			return queue[i].Card.Memory.Difficulty > queue[j].Card.Memory.Difficulty
		})
	case EasiestFirst:
		sort.SliceStable(queue, func(i, j int) bool {
			return queue[i].Card.Memory.Difficulty < queue[j].Card.Memory.Difficulty
		})
	}
}

// Current returns the card being presented, or false outside Reviewing.
func (o *Orchestrator) Current() (ReviewCard, bool) {
	if o.state != Reviewing || o.index >= len(o.queue) {
		return ReviewCard{}, false
	}
	return o.queue[o.index], true
}

// Progress reports reviewed and total card counts. Skips are invisible here.
func (o *Orchestrator) Progress() (reviewed, total int) {
	return len(o.records), o.total
}

// CanUndo reports whether at least one rating can be reverted.
func (o *Orchestrator) CanUndo() bool { return len(o.undo) > 0 }

// Records returns the session card records accumulated so far.
func (o *Orchestrator) Records() []domain.SessionCardRecord { return o.records }

// Rate applies the user's rating to the current card: schedules the next
// review, persists the updated card, appends the session record, pushes an
// undo entry and advances. The optional evaluation is attached verbatim; its
// absence never blocks rating.
//
// A persistence failure is returned to the caller but the in-memory session
// still advances. Reviewing continues; only durability for that one card is
// at risk.
func (o *Orchestrator) Rate(userAnswer string, rating domain.Rating, eval *domain.Evaluation) error {
	if o.state != Reviewing {
		return errors.New("session: not reviewing")
	}
	now := o.cfg.Now()
	current := o.queue[o.index]
	previous := current.Card

	oldInterval := scheduler.DaysUntilDue(previous, now)
	next := o.cfg.Engine.Review(previous, rating, now)
	next.Stats.TotalReviews++
	if rating.Correct() {
		next.Stats.CorrectStreak++
	} else {
		next.Stats.CorrectStreak = 0
	}
	newInterval := scheduler.DaysUntilDue(next, now)

	persistErr := o.cfg.Store.ApplyReview(current.DocPath, current.Question.SourceFile, next)
	if persistErr != nil {
		o.log.Warn("card persist failed, session continues",
			"question_id", current.Question.ID, "error", persistErr)
	}

	record := domain.SessionCardRecord{
		QuestionID:     current.Question.ID,
		SourceFile:     current.Question.SourceFile,
		Question:       current.Question.Text,
		UserAnswer:     userAnswer,
		ExpectedAnswer: current.Question.Answer,
		Evaluation:     eval,
		Rating:         rating,
		OldInterval:    oldInterval,
		NewInterval:    newInterval,
	}
	o.records = append(o.records, record)
	o.undo = append(o.undo, undoEntry{index: o.index, record: record, previous: previous})

	o.queue[o.index].Card = next
	o.index++
	if o.index >= len(o.queue) {
		o.state = Complete
	}
	return persistErr
}

// Skip moves the current card to the end of the queue without touching its
// state or the progress counters. The next card in the original order takes
// its place; when the current card is the last one it simply comes up again.
func (o *Orchestrator) Skip() {
	if o.state != Reviewing {
		return
	}
	current := o.queue[o.index]
	o.queue = append(o.queue[:o.index], o.queue[o.index+1:]...)
	o.queue = append(o.queue, current)
}

// Undo reverts the most recent rating: the previous card state is written
// back to the store, the last session record is dropped, and presentation
// returns to the undone card. There is no redo. Returns false when nothing
// can be undone.
func (o *Orchestrator) Undo() (bool, error) {
	if len(o.undo) == 0 {
		return false, nil
	}
	entry := o.undo[len(o.undo)-1]
	o.undo = o.undo[:len(o.undo)-1]
	o.records = o.records[:len(o.records)-1]

	var persistErr error
	for i := range o.queue {
		if o.queue[i].Question.ID == entry.record.QuestionID {
			o.queue[i].Card = entry.previous
			persistErr = o.cfg.Store.ApplyReview(o.queue[i].DocPath, entry.record.SourceFile, entry.previous)
			break
		}
	}
	if persistErr != nil {
		o.log.Warn("undo persist failed", "question_id", entry.record.QuestionID, "error", persistErr)
	}

	o.index = entry.index
	if o.state == Complete {
		o.state = Reviewing
	}
	return true, persistErr
}

// Finish completes the session, naturally or early, and returns the summary
// and records. Whatever records exist are finalized exactly as if the queue
// had been exhausted: the transcript is rendered and archived and the session
// recorded in history when those collaborators are configured. Finish is a
// cooperative action; the most recent rating's persistence has already
// completed by the time it runs.
func (o *Orchestrator) Finish() (domain.SessionSummary, []domain.SessionCardRecord, error) {
	now := o.cfg.Now()
	o.state = Complete

	var counts domain.RatingCounts
	for _, r := range o.records {
		counts.Add(r.Rating)
	}
	summary := domain.SessionSummary{
		Files:         o.files,
		StartTime:     o.start,
		EndTime:       now,
		CardsReviewed: len(o.records),
		Ratings:       counts,
	}

	var errs []error
	if o.cfg.Renderer != nil && o.cfg.Archiver != nil {
		content := o.cfg.Renderer.Render(summary, o.records)
		name := o.cfg.Renderer.Filename(o.start)
		if path, err := o.cfg.Archiver.SaveSession(name, content); err != nil {
			errs = append(errs, fmt.Errorf("archive transcript: %w", err))
		} else {
			o.log.Info("session transcript saved", "path", path)
		}
	}
	if o.cfg.History != nil {
		if err := o.cfg.History.RecordSession(summary, o.records); err != nil {
			errs = append(errs, fmt.Errorf("record session history: %w", err))
		}
	}

	return summary, o.records, errors.Join(errs...)
}
