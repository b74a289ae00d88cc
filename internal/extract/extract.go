// Package extract parses document text into flashcard question/answer pairs.
//
// The grammar is indentation based: a zero-indent list item opens a question,
// every indented line after it belongs to the answer, and the next zero-indent
// list item (or end of input) closes the pair. Items without any indented
// follow-up produce nothing; an answer is mandatory for a pair to count.
package extract

import (
	"regexp"
	"strings"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/identity"
)

// itemPattern matches a top-level list item: unordered (-, *, +) or ordered
// (N.), followed by at least one space and content.
var itemPattern = regexp.MustCompile(`^([-*+]|[0-9]+\.)\s+(.+)`)

// Questions extracts every question/answer pair from documentText. The
// sourceFile's base name participates in each question's ID; the result is
// finite and safe to recompute against updated text at any time.
func Questions(documentText, sourceFile string) []domain.Question {
	lines := strings.Split(documentText, "\n")

	var questions []domain.Question
	var current string
	var answer []string
	currentLine := 0
	open := false

	flush := func() {
		if !open || len(answer) == 0 {
			return
		}
		text := normalizeIndent(answer)
		if text == "" {
			return
		}
		questions = append(questions, domain.Question{
			ID:         identity.QuestionID(current, sourceFile),
			Text:       current,
			Answer:     text,
			SourceFile: sourceFile,
			Line:       currentLine,
		})
	}

	for i, line := range lines {
		indent := leadingWhitespace(line)
		trimmed := strings.TrimSpace(line)

		if indent == 0 {
			if m := itemPattern.FindStringSubmatch(trimmed); m != nil {
				flush()
				current = m[2]
				answer = nil
				currentLine = i + 1
				open = true
			}
			// Other zero-indent lines are plain prose, not part of any card.
			continue
		}

		if open && trimmed != "" {
			answer = append(answer, line)
		}
	}
	flush()

	return questions
}

// normalizeIndent strips the minimum common leading whitespace from the
// buffered answer lines and trims the result, so the answer text is stable
// under uniform re-indentation of the block.
func normalizeIndent(lines []string) string {
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := leadingWhitespace(line)
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent < 0 {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	stripped := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= minIndent {
			stripped[i] = line[minIndent:]
		} else {
			stripped[i] = line
		}
	}
	return strings.TrimSpace(strings.Join(stripped, "\n"))
}

// leadingWhitespace counts leading space and tab characters.
func leadingWhitespace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return i
		}
	}
	return len(s)
}
