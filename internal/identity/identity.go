// Package identity derives the stable ID that ties a parsed question to its
// persisted scheduling state across document edits.
package identity

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// prefixLen bounds how much of the question text participates in the ID, so
// edits past the opening of a question do not orphan its card.
const prefixLen = 100

// QuestionID computes the ID for a question. It depends only on the trimmed
// question text's first 100 characters and the base name of the source file,
// never on the full path or the answer. Identical inputs always produce
// identical IDs, on every platform.
func QuestionID(questionText, sourceFile string) string {
	trimmed := strings.TrimSpace(questionText)
	units := utf16.Encode([]rune(trimmed))
	if len(units) > prefixLen {
		units = units[:prefixLen]
	}
	units = append(units, utf16.Encode([]rune(baseName(sourceFile)))...)
	return "q_" + hash36(units)
}

// baseName strips any directory prefix, accepting either separator so IDs
// survive a move between platforms.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// hash36 is a polynomial rolling hash over UTF-16 code units with 32-bit
// wraparound, rendered in base 36. Collision avoidance beyond typical corpus
// sizes is not a goal; determinism is.
func hash36(units []uint16) string {
	var h int32
	for _, u := range units {
		h = (h << 5) - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
