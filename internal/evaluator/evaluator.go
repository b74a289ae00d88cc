// Package evaluator provides optional AI feedback on review answers. The
// evaluation is advisory: the session attaches it to the transcript record
// but scheduling never depends on it, and a missing or failing provider
// never blocks rating.
package evaluator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Zentoboo/dck/internal/domain"
)

// Params is one evaluation request.
type Params struct {
	Question       string
	ExpectedAnswer string
	UserAnswer     string
	Keywords       []string
}

// Provider produces an evaluation for a single answer.
type Provider interface {
	ID() string
	Name() string
	Evaluate(ctx context.Context, p Params) (*domain.Evaluation, error)
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	ProviderID string
	APIKey     string
	Model      string
	Endpoint   string
}

// Factory constructs a provider from its configuration.
type Factory func(cfg ProviderConfig) (Provider, error)

var registry = map[string]Factory{}

// Register adds a provider factory under an id. Called from provider init
// functions.
func Register(id string, f Factory) {
	registry[id] = f
}

// NewProvider constructs the provider named by cfg.ProviderID.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	f, ok := registry[cfg.ProviderID]
	if !ok {
		return nil, fmt.Errorf("evaluator: unknown provider %q (have %s)",
			cfg.ProviderID, strings.Join(ProviderIDs(), ", "))
	}
	return f(cfg)
}

// ProviderIDs lists the registered provider ids, sorted.
func ProviderIDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evaluator combines a provider's judgement with local keyword analysis.
type Evaluator struct {
	provider Provider
}

// New returns an evaluator backed by the given provider. The caller owns the
// provider and reconstructs the evaluator when configuration changes.
func New(provider Provider) *Evaluator {
	return &Evaluator{provider: provider}
}

// Evaluate scores the user's answer against the expected one. Keywords are
// extracted from the expected answer and their coverage computed locally;
// the provider supplies the qualitative judgement.
func (e *Evaluator) Evaluate(ctx context.Context, question, expectedAnswer, userAnswer string) (*domain.Evaluation, error) {
	keywords := ExtractKeywords(expectedAnswer)

	ev, err := e.provider.Evaluate(ctx, Params{
		Question:       question,
		ExpectedAnswer: expectedAnswer,
		UserAnswer:     userAnswer,
		Keywords:       keywords,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate with %s: %w", e.provider.ID(), err)
	}

	ev.Keywords = AnalyzeKeywords(keywords, userAnswer)
	if ev.SuggestedRating < domain.Again {
		ev.SuggestedRating = domain.Again
	}
	if ev.SuggestedRating > domain.Easy {
		ev.SuggestedRating = domain.Easy
	}
	return ev, nil
}

var keywordPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// ExtractKeywords returns the **bold** spans of an answer, in order.
func ExtractKeywords(text string) []string {
	var keywords []string
	for _, m := range keywordPattern.FindAllStringSubmatch(text, -1) {
		if kw := strings.TrimSpace(m[1]); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// AnalyzeKeywords checks which expected keywords appear in the user's answer,
// case-insensitively, and scores the coverage in percent.
func AnalyzeKeywords(expected []string, userAnswer string) domain.KeywordAnalysis {
	analysis := domain.KeywordAnalysis{Expected: expected}
	lower := strings.ToLower(userAnswer)

	for _, kw := range expected {
		if strings.Contains(lower, strings.ToLower(kw)) {
			analysis.Found = append(analysis.Found, kw)
		} else {
			analysis.Missing = append(analysis.Missing, kw)
		}
	}
	if len(expected) > 0 {
		analysis.Score = len(analysis.Found) * 100 / len(expected)
	}
	return analysis
}
