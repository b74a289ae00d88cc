package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Zentoboo/dck/internal/domain"
)

func init() {
	Register("anthropic", func(cfg ProviderConfig) (Provider, error) {
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		llm, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init anthropic provider: %w", err)
		}
		return &llmProvider{id: "anthropic", name: "Anthropic Claude", model: llm}, nil
	})

	Register("openai", func(cfg ProviderConfig) (Provider, error) {
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init openai provider: %w", err)
		}
		return &llmProvider{id: "openai", name: "OpenAI", model: llm}, nil
	})
}

// llmProvider evaluates answers through a langchaingo model. The model is
// asked for a strict JSON object; anything around it is stripped before
// decoding.
type llmProvider struct {
	id    string
	name  string
	model llms.Model
}

func (p *llmProvider) ID() string   { return p.id }
func (p *llmProvider) Name() string { return p.name }

func (p *llmProvider) Evaluate(ctx context.Context, params Params) (*domain.Evaluation, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.model, buildPrompt(params),
		llms.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", p.id, err)
	}
	ev, err := parseEvaluation(out)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", p.id, err)
	}
	return ev, nil
}

func buildPrompt(p Params) string {
	var b strings.Builder
	b.WriteString("You are grading a flashcard answer. Respond with a single JSON object and nothing else, using this shape:\n")
	b.WriteString(`{"suggestedRating": 1-4, "overallScore": 0-100, "accuracy": "short judgement", "improvements": ["..."], "strengths": ["..."]}`)
	b.WriteString("\n\nRating scale: 1=Again (incorrect), 2=Hard (barely correct), 3=Good (correct), 4=Easy (correct and effortless).\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nExpected answer:\n%s\n\nUser's answer:\n%s\n", p.Question, p.ExpectedAnswer, p.UserAnswer)
	if len(p.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKey terms the answer should cover: %s\n", strings.Join(p.Keywords, ", "))
	}
	return b.String()
}

// parseEvaluation decodes the model output, tolerating prose or code fences
// around the JSON object.
func parseEvaluation(out string) (*domain.Evaluation, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var ev domain.Evaluation
	if err := json.Unmarshal([]byte(out[start:end+1]), &ev); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	if ev.OverallScore < 0 {
		ev.OverallScore = 0
	}
	if ev.OverallScore > 100 {
		ev.OverallScore = 100
	}
	return &ev, nil
}
