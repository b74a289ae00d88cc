// Package config holds the persisted application settings: review defaults,
// AI provider selection, recent folders and saved decks. It is an explicit
// object with a load/save lifecycle; callers construct it once and pass it
// where needed.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	maxRecentFolders = 5
	maxSavedDecks    = 10
)

// RecentFolder is one entry of the most-recently-used folder list.
type RecentFolder struct {
	Path         string    `koanf:"path" yaml:"path"`
	Name         string    `koanf:"name" yaml:"name"`
	LastAccessed time.Time `koanf:"last_accessed" yaml:"last_accessed"`
}

// SavedDeck is a named group of document paths reusable across sessions.
type SavedDeck struct {
	ID        string    `koanf:"id" yaml:"id"`
	Name      string    `koanf:"name" yaml:"name"`
	Files     []string  `koanf:"files" yaml:"files"`
	CreatedAt time.Time `koanf:"created_at" yaml:"created_at"`
	LastUsed  time.Time `koanf:"last_used" yaml:"last_used"`
}

// ReviewConfig holds session defaults.
type ReviewConfig struct {
	Mode     string `koanf:"mode" yaml:"mode" validate:"oneof=review study"`
	Ordering string `koanf:"ordering" yaml:"ordering" validate:"oneof=random sequential hardest-first easiest-first"`
}

// AIConfig selects and configures the answer evaluator.
type AIConfig struct {
	Enabled  bool   `koanf:"enabled" yaml:"enabled"`
	Provider string `koanf:"provider" yaml:"provider" validate:"required_if=Enabled true"`
	APIKey   string `koanf:"api_key" yaml:"api_key" validate:"required_if=Enabled true"`
	Model    string `koanf:"model" yaml:"model"`
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
}

// VaultConfig describes the notes folder.
type VaultConfig struct {
	// GitURL, when set, makes the folder a clone of this repository and
	// enables pre-session sync.
	GitURL string `koanf:"git_url" yaml:"git_url"`
}

// Config is the full persisted configuration.
type Config struct {
	Review        ReviewConfig   `koanf:"review" yaml:"review"`
	AI            AIConfig       `koanf:"ai" yaml:"ai"`
	Vault         VaultConfig    `koanf:"vault" yaml:"vault"`
	RecentFolders []RecentFolder `koanf:"recent_folders" yaml:"recent_folders"`
	SavedDecks    []SavedDeck    `koanf:"saved_decks" yaml:"saved_decks"`
}

// Default returns the configuration used when nothing is persisted yet.
func Default() Config {
	return Config{
		Review: ReviewConfig{
			Mode:     "review",
			Ordering: "random",
		},
	}
}

// DefaultPath returns the user-level config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dck", "config.yaml"), nil
}

// Load reads configuration in precedence order: defaults, then the YAML file
// (if present), then DCK_-prefixed environment variables, then command-line
// flags. The result is validated before being returned.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	// DCK_AI_API_KEY -> ai.api_key; the first underscore separates the
	// section from the field.
	if err := k.Load(env.Provider("DCK_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "DCK_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration back to the YAML file, creating parent
// directories as needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// TouchFolder moves the folder to the front of the recent list, adding it if
// missing and dropping the oldest entry past the cap.
func (c *Config) TouchFolder(path string, now time.Time) {
	updated := []RecentFolder{{
		Path:         path,
		Name:         filepath.Base(path),
		LastAccessed: now,
	}}
	for _, f := range c.RecentFolders {
		if f.Path != path {
			updated = append(updated, f)
		}
	}
	if len(updated) > maxRecentFolders {
		updated = updated[:maxRecentFolders]
	}
	c.RecentFolders = updated
}

// LastFolder returns the most recently used folder, if any.
func (c *Config) LastFolder() (RecentFolder, bool) {
	if len(c.RecentFolders) == 0 {
		return RecentFolder{}, false
	}
	return c.RecentFolders[0], true
}

// SaveDeck stores a named file group at the front of the deck list, dropping
// the least recently used deck past the cap.
func (c *Config) SaveDeck(name string, files []string, now time.Time) SavedDeck {
	deck := SavedDeck{
		ID:        fmt.Sprintf("deck-%d", now.UnixMilli()),
		Name:      name,
		Files:     files,
		CreatedAt: now,
		LastUsed:  now,
	}
	c.SavedDecks = append([]SavedDeck{deck}, c.SavedDecks...)
	if len(c.SavedDecks) > maxSavedDecks {
		c.SavedDecks = c.SavedDecks[:maxSavedDecks]
	}
	return deck
}

// UseDeck marks a deck as used now. Returns false when the deck is unknown.
func (c *Config) UseDeck(id string, now time.Time) bool {
	for i := range c.SavedDecks {
		if c.SavedDecks[i].ID == id {
			c.SavedDecks[i].LastUsed = now
			return true
		}
	}
	return false
}

// DeleteDeck removes a deck by id.
func (c *Config) DeleteDeck(id string) {
	decks := c.SavedDecks[:0]
	for _, d := range c.SavedDecks {
		if d.ID != id {
			decks = append(decks, d)
		}
	}
	c.SavedDecks = decks
}
