package domain

import "time"

// Question is a single prompt/answer pair extracted from a document.
// Questions are ephemeral: they are re-derived from the document text every
// time it is read, and matched to persisted state by ID.
type Question struct {
	ID         string
	Text       string
	Answer     string
	SourceFile string
	Line       int
}

// Rating is the user's response to a card review.
type Rating int8

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// String returns the label used in transcripts and logs.
func (r Rating) String() string {
	switch r {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// Correct reports whether the rating counts as a successful recall.
func (r Rating) Correct() bool {
	return r == Good || r == Easy
}

// State is the maturity of a card in the memory model.
type State int8

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateLearning:
		return "Learning"
	case StateReview:
		return "Review"
	case StateRelearning:
		return "Relearning"
	default:
		return "Unknown"
	}
}

// Memory holds the forgetting-curve model fields of a card. The JSON tags
// match the sidecar file format.
type Memory struct {
	Stability     float64   `json:"stability"`
	Difficulty    float64   `json:"difficulty"`
	ElapsedDays   int       `json:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days"`
	Reps          int       `json:"reps"`
	Lapses        int       `json:"lapses"`
	State         State     `json:"state"`
	LastReview    time.Time `json:"last_review"`
	Due           time.Time `json:"due"`
}

// Stats are the review counters owned by the caller of the scheduler.
type Stats struct {
	TotalReviews  int       `json:"totalReviews"`
	CorrectStreak int       `json:"correctStreak"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CardState is the durable per-question scheduling state. One exists per
// Question.ID that has ever been part of a session; it is created lazily the
// first time a question has no persisted match.
type CardState struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Memory     Memory `json:"fsrs"`
	Stats      Stats  `json:"stats"`
}

// CardFile is the persisted per-document card collection. It is always
// written whole, never patched.
type CardFile struct {
	SourceFile string      `json:"sourceFile"`
	Cards      []CardState `json:"cards"`
}

// Find returns the card with the given question ID, or nil.
func (f *CardFile) Find(questionID string) *CardState {
	for i := range f.Cards {
		if f.Cards[i].QuestionID == questionID {
			return &f.Cards[i]
		}
	}
	return nil
}

// Upsert replaces the card with a matching question ID, or appends it.
func (f *CardFile) Upsert(card CardState) {
	for i := range f.Cards {
		if f.Cards[i].QuestionID == card.QuestionID {
			f.Cards[i] = card
			return
		}
	}
	f.Cards = append(f.Cards, card)
}

// KeywordAnalysis reports which expected keywords appeared in an answer.
type KeywordAnalysis struct {
	Expected []string `json:"expectedKeywords"`
	Found    []string `json:"foundKeywords"`
	Missing  []string `json:"missingKeywords"`
	Score    int      `json:"keywordScore"`
}

// Evaluation is the optional AI feedback attached to a reviewed card. It is
// advisory only and never feeds into scheduling.
type Evaluation struct {
	SuggestedRating Rating          `json:"suggestedRating"`
	OverallScore    int             `json:"overallScore"`
	Accuracy        string          `json:"accuracy"`
	Keywords        KeywordAnalysis `json:"keywordAnalysis"`
	Improvements    []string        `json:"improvements"`
	Strengths       []string        `json:"strengths"`
}

// SessionCardRecord captures one reviewed card within a session.
type SessionCardRecord struct {
	QuestionID     string
	SourceFile     string
	Question       string
	UserAnswer     string
	ExpectedAnswer string
	Evaluation     *Evaluation
	Rating         Rating
	OldInterval    int
	NewInterval    int
}

// RatingCounts is a histogram over the four ratings.
type RatingCounts struct {
	Again int
	Hard  int
	Good  int
	Easy  int
}

// Add increments the bucket for the given rating.
func (c *RatingCounts) Add(r Rating) {
	switch r {
	case Again:
		c.Again++
	case Hard:
		c.Hard++
	case Good:
		c.Good++
	case Easy:
		c.Easy++
	}
}

// Total returns the number of ratings counted.
func (c RatingCounts) Total() int {
	return c.Again + c.Hard + c.Good + c.Easy
}

// SessionSummary describes one completed review session.
type SessionSummary struct {
	Files         []string
	StartTime     time.Time
	EndTime       time.Time
	CardsReviewed int
	Ratings       RatingCounts
}
