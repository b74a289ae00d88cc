package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Zentoboo/dck/internal/config"
	"github.com/Zentoboo/dck/internal/docstore"
	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/evaluator"
	"github.com/Zentoboo/dck/internal/extract"
	"github.com/Zentoboo/dck/internal/history"
	"github.com/Zentoboo/dck/internal/metrics"
	"github.com/Zentoboo/dck/internal/scheduler"
	"github.com/Zentoboo/dck/internal/session"
	"github.com/Zentoboo/dck/internal/store"
	"github.com/Zentoboo/dck/internal/transcript"
	"github.com/Zentoboo/dck/internal/vault"
)

func main() {
	flags := pflag.NewFlagSet("dck", pflag.ExitOnError)
	folder := flags.String("folder", "", "Notes folder to review (default: most recent)")
	configPath := flags.String("config", "", "Config file path (default: ~/.config/dck/config.yaml)")
	stats := flags.Bool("stats", false, "Print card and study statistics instead of reviewing")
	flags.String("review.mode", "review", "Session mode: review (due and new cards) or study (all cards)")
	flags.String("review.ordering", "random", "Queue order: random, sequential, hardest-first or easiest-first")
	flags.Bool("ai.enabled", false, "Ask the configured AI provider for answer feedback")
	flags.Parse(os.Args[1:])

	if *configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fatal("resolve config path", err)
		}
		*configPath = p
	}
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fatal("load config", err)
	}

	root := *folder
	if root == "" {
		last, ok := cfg.LastFolder()
		if !ok {
			fmt.Fprintln(os.Stderr, "No notes folder. Pass one with --folder.")
			os.Exit(1)
		}
		root = last.Path
	}

	ctx := context.Background()
	if cfg.Vault.GitURL != "" {
		if err := vault.Sync(ctx, cfg.Vault.GitURL, root); err != nil {
			slog.Warn("notes sync failed, continuing with local copy", "error", err)
		}
	}

	docs := docstore.FS{Root: root}
	cards := store.New(store.FileCardIO{})
	engine := scheduler.New()

	if *stats {
		if err := printStats(docs, cards, engine); err != nil {
			fatal("stats", err)
		}
		return
	}

	if err := runSession(ctx, cfg, docs, cards, engine); err != nil {
		fatal("session", err)
	}

	cfg.TouchFolder(root, time.Now())
	if err := config.Save(*configPath, cfg); err != nil {
		slog.Warn("config save failed", "error", err)
	}
}

func runSession(ctx context.Context, cfg *config.Config, docs docstore.FS, cards *store.Store, engine *scheduler.Engine) error {
	listed, err := docs.ListDocuments()
	if err != nil {
		return err
	}
	if len(listed) == 0 {
		fmt.Println("No markdown documents found.")
		return nil
	}

	historyPath := docs.StatePath("history.db")
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	db, err := history.Open(historyPath)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := session.New(session.Config{
		Store:    cards,
		Engine:   engine,
		Docs:     docs,
		Renderer: transcript.Markdown{},
		Archiver: docs,
		History:  db,
	})
	if err != nil {
		return err
	}

	selected := make([]session.Document, len(listed))
	for i, d := range listed {
		selected[i] = session.Document{Name: d.Name, Path: d.Path}
	}
	if err := orch.Start(selected, session.ParseMode(cfg.Review.Mode), session.ParseOrdering(cfg.Review.Ordering)); err != nil {
		return err
	}

	eval := buildEvaluator(cfg)
	reviewLoop(ctx, orch, eval)

	summary, _, err := orch.Finish()
	if err != nil {
		slog.Warn("session finalization incomplete", "error", err)
	}
	printSummary(summary)
	return nil
}

func reviewLoop(ctx context.Context, orch *session.Orchestrator, eval *evaluator.Evaluator) {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for orch.State() == session.Reviewing {
		card, ok := orch.Current()
		if !ok {
			break
		}
		reviewed, total := orch.Progress()
		fmt.Printf("\n[%d/%d] %s\n", reviewed+1, total, card.Question.SourceFile)
		fmt.Printf("Q: %s\n\nYour answer (empty to reveal): ", card.Question.Text)
		if !in.Scan() {
			break
		}
		userAnswer := strings.TrimSpace(in.Text())

		fmt.Printf("\nExpected:\n%s\n", card.Question.Answer)

		var ev *domain.Evaluation
		if eval != nil && userAnswer != "" {
			evalCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			result, err := eval.Evaluate(evalCtx, card.Question.Text, card.Question.Answer, userAnswer)
			cancel()
			if err != nil {
				slog.Warn("evaluation unavailable", "error", err)
			} else {
				ev = result
				fmt.Printf("\nAI: %d%%, suggests %s. %s\n", ev.OverallScore, ev.SuggestedRating, ev.Accuracy)
			}
		}

		fmt.Print("\nRate [1=Again 2=Hard 3=Good 4=Easy, s=skip, u=undo, q=quit]: ")
		if !in.Scan() {
			break
		}
		switch choice := strings.TrimSpace(in.Text()); choice {
		case "1", "2", "3", "4":
			rating := domain.Rating(choice[0] - '0')
			if err := orch.Rate(userAnswer, rating, ev); err != nil {
				slog.Warn("rating persisted in memory only", "error", err)
			}
		case "s":
			orch.Skip()
		case "u":
			if ok, err := orch.Undo(); !ok {
				fmt.Println("Nothing to undo.")
			} else if err != nil {
				slog.Warn("undo persisted in memory only", "error", err)
			}
		case "q":
			return
		default:
			fmt.Println("Unrecognized choice.")
		}
	}
}

func buildEvaluator(cfg *config.Config) *evaluator.Evaluator {
	if !cfg.AI.Enabled {
		return nil
	}
	provider, err := evaluator.NewProvider(evaluator.ProviderConfig{
		ProviderID: cfg.AI.Provider,
		APIKey:     cfg.AI.APIKey,
		Model:      cfg.AI.Model,
		Endpoint:   cfg.AI.Endpoint,
	})
	if err != nil {
		slog.Warn("AI evaluation disabled", "error", err)
		return nil
	}
	return evaluator.New(provider)
}

func printStats(docs docstore.FS, cards *store.Store, engine *scheduler.Engine) error {
	listed, err := docs.ListDocuments()
	if err != nil {
		return err
	}
	now := time.Now()

	var perDoc []metrics.DocumentStats
	for _, doc := range listed {
		text, err := docs.ReadText(doc.Path)
		if err != nil {
			return err
		}
		persisted, err := cards.Load(doc.Path)
		if err != nil {
			return err
		}
		entries := store.Reconcile(extract.Questions(text, doc.Name), persisted.Cards, now)
		perDoc = append(perDoc, metrics.ForDocument(doc.Name, entries, now))
	}

	fmt.Printf("%-30s %6s %6s %6s %6s\n", "FILE", "CARDS", "DUE", "NEW", "DIFF")
	for _, d := range perDoc {
		fmt.Printf("%-30s %6d %6d %6d %6.1f\n", d.File, d.TotalCards, d.DueCount, d.NewCount, d.AvgDifficulty)
	}
	overall := metrics.Aggregate(perDoc)
	fmt.Printf("\nTotal: %d cards, %d due, %d new, retention %.0f%%\n",
		overall.TotalCards, overall.DueCards, overall.NewCards, overall.RetentionRate)

	if db, err := history.Open(docs.StatePath("history.db")); err == nil {
		defer db.Close()
		if sessions, err := db.ListSessions(); err == nil && len(sessions) > 0 {
			h := metrics.FromSessions(sessions)
			fmt.Printf("History: %d sessions over %d days, %d cards, accuracy %.0f%%\n",
				h.TotalSessions, h.StudyDays, h.TotalCardsReviewed, h.AccuracyRate)
		}
	}
	return nil
}

func printSummary(summary domain.SessionSummary) {
	fmt.Printf("\nSession complete: %d cards in %ds\n",
		summary.CardsReviewed, int(summary.EndTime.Sub(summary.StartTime).Seconds()))
	fmt.Printf("Again %d | Hard %d | Good %d | Easy %d\n",
		summary.Ratings.Again, summary.Ratings.Hard, summary.Ratings.Good, summary.Ratings.Easy)
}

func fatal(what string, err error) {
	slog.Error(what, "error", err)
	os.Exit(1)
}
