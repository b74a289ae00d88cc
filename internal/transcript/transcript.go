// Package transcript renders a completed session into the markdown report
// archived alongside the notes.
package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zentoboo/dck/internal/domain"
)

// Markdown renders session transcripts as markdown. It implements
// session.Renderer.
type Markdown struct{}

// Filename returns the archive name for a session started at the given time,
// e.g. session.2026-08-28-14-05.md.
func (Markdown) Filename(start time.Time) string {
	return "session." + start.Format("2006-01-02-15-04") + ".md"
}

// Render formats the summary header, one section per reviewed card, and the
// rating histogram.
func (Markdown) Render(summary domain.SessionSummary, records []domain.SessionCardRecord) string {
	var b strings.Builder

	duration := int(summary.EndTime.Sub(summary.StartTime).Seconds())
	correct := summary.Ratings.Good + summary.Ratings.Easy
	incorrect := summary.Ratings.Again + summary.Ratings.Hard

	fmt.Fprintf(&b, "# Flashcard Session - %s\n\n", summary.StartTime.Format("January 2, 2006 15:04"))
	fmt.Fprintf(&b, "**Files Reviewed:** %s\n", strings.Join(summary.Files, ", "))
	fmt.Fprintf(&b, "**Duration:** %ds\n", duration)
	fmt.Fprintf(&b, "**Cards Reviewed:** %d\n", summary.CardsReviewed)
	fmt.Fprintf(&b, "**Performance:** %d correct, %d incorrect\n\n", correct, incorrect)
	b.WriteString("---\n\n")

	for i, rec := range records {
		fmt.Fprintf(&b, "## Card %d - %s\n", i+1, rec.SourceFile)
		fmt.Fprintf(&b, "**Question:** %s\n\n", rec.Question)

		b.WriteString("**Your Answer:**\n")
		if rec.UserAnswer != "" {
			b.WriteString(rec.UserAnswer + "\n\n")
		} else {
			b.WriteString("_(No answer provided)_\n\n")
		}

		if rec.Evaluation != nil {
			writeEvaluation(&b, rec.Evaluation)
		}

		b.WriteString("**Expected Answer:**\n")
		b.WriteString(rec.ExpectedAnswer + "\n\n")

		fmt.Fprintf(&b, "**Self-Rating:** [%d] %s (%d/4)\n", rec.Rating, rec.Rating, rec.Rating)
		fmt.Fprintf(&b, "**Interval:** %d days -> %d days\n\n", rec.OldInterval, rec.NewInterval)
		b.WriteString("---\n\n")
	}

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Again (1):** %d cards\n", summary.Ratings.Again)
	fmt.Fprintf(&b, "- **Hard (2):** %d cards\n", summary.Ratings.Hard)
	fmt.Fprintf(&b, "- **Good (3):** %d cards\n", summary.Ratings.Good)
	fmt.Fprintf(&b, "- **Easy (4):** %d cards\n\n", summary.Ratings.Easy)

	return b.String()
}

func writeEvaluation(b *strings.Builder, ev *domain.Evaluation) {
	b.WriteString("**AI Evaluation:**\n\n")
	fmt.Fprintf(b, "**Overall Score:** %d%%\n", ev.OverallScore)
	fmt.Fprintf(b, "**Suggested Rating:** %d/4\n\n", ev.SuggestedRating)

	if ev.Accuracy != "" {
		fmt.Fprintf(b, "**Accuracy:** %s\n\n", ev.Accuracy)
	}

	fmt.Fprintf(b, "**Keyword Analysis (%d%%):**\n", ev.Keywords.Score)
	if len(ev.Keywords.Found) > 0 {
		fmt.Fprintf(b, "  Found: %s\n", strings.Join(ev.Keywords.Found, ", "))
	}
	if len(ev.Keywords.Missing) > 0 {
		fmt.Fprintf(b, "  Missing: %s\n", strings.Join(ev.Keywords.Missing, ", "))
	}
	b.WriteString("\n")

	if len(ev.Improvements) > 0 {
		b.WriteString("**Suggested Improvements:**\n")
		for _, s := range ev.Improvements {
			fmt.Fprintf(b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(ev.Strengths) > 0 {
		b.WriteString("**Strengths:**\n")
		for _, s := range ev.Strengths {
			fmt.Fprintf(b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
}
