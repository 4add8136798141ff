package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/hnterm/internal/store"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// EnvPath overrides the config file location.
const EnvPath = "HNTERM_CONFIG"

// MinRefreshInterval is the shortest allowed poll period.
const MinRefreshInterval = time.Minute

// Config is the persistent application configuration
type Config struct {
	Settings    Settings    `yaml:"settings"`
	Interface   Interface   `yaml:"interface"`
	Keybindings Keybindings `yaml:"keybindings"`
}

// Settings controls fetching and caching.
type Settings struct {
	ExtraPage         int     `yaml:"extra_page"`
	Cache             string  `yaml:"cache"`
	CacheAge          int     `yaml:"cache_age"`        // minutes
	RefreshInterval   int     `yaml:"refresh_interval"` // minutes
	FetchTimeout      string  `yaml:"fetch_timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BaseURL           string  `yaml:"base_url"`
}

// Interface holds display preferences
type Interface struct {
	ShowScore         bool   `yaml:"show_score"`
	ShowComments      bool   `yaml:"show_comments"`
	ShowPublishedTime bool   `yaml:"show_published_time"`
	DefaultCategory   string `yaml:"default_category"`
}

// Keybindings maps each action to comma-separated key names as bubbletea
// reports them ("ctrl+u", "enter", "G").
type Keybindings struct {
	Up                string `yaml:"up"`
	Down              string `yaml:"down"`
	PageUp            string `yaml:"page_up"`
	PageDown          string `yaml:"page_down"`
	FirstStory        string `yaml:"first_story"`
	LastStory         string `yaml:"last_story"`
	Refresh           string `yaml:"refresh"`
	ShowStoryLink     string `yaml:"show_story_link"`
	CopyStoryLink     string `yaml:"copy_story_link"`
	ShowCommentsLink  string `yaml:"show_comments_link"`
	CopyCommentsLink  string `yaml:"copy_comments_link"`
	ShowSubmitterLink string `yaml:"show_submitter_link"`
	CopySubmitterLink string `yaml:"copy_submitter_link"`
	TopStories        string `yaml:"top_stories"`
	NewestStories     string `yaml:"newest_stories"`
	BestStories       string `yaml:"best_stories"`
	ShowStories       string `yaml:"show_stories"`
	ShowNewestStories string `yaml:"show_newest_stories"`
	AskStories        string `yaml:"ask_stories"`
	JobsStories       string `yaml:"jobs_stories"`
	Help              string `yaml:"help"`
	Quit              string `yaml:"quit"`
}

// Keys splits a binding value into key names.
func Keys(binding string) []string {
	var keys []string
	for _, k := range strings.Split(binding, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// CategoryKeys returns the binding of each category switch.
func (k Keybindings) CategoryKeys() map[store.Category]string {
	return map[store.Category]string{
		store.CategoryTop:        k.TopStories,
		store.CategoryNewest:     k.NewestStories,
		store.CategoryBest:       k.BestStories,
		store.CategoryShow:       k.ShowStories,
		store.CategoryShowNewest: k.ShowNewestStories,
		store.CategoryAsk:        k.AskStories,
		store.CategoryJobs:       k.JobsStories,
	}
}

// CacheMaxAge is how long a cached category stays fresh.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Settings.CacheAge) * time.Minute
}

// PollInterval is the background refresh period, never below MinRefreshInterval.
func (c *Config) PollInterval() time.Duration {
	d := time.Duration(c.Settings.RefreshInterval) * time.Minute
	if d < MinRefreshInterval {
		return MinRefreshInterval
	}
	return d
}

// FetchTimeoutDuration returns the per-request timeout, defaulting to 30s.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Settings.FetchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// CachePath returns the cache database location.
func (c *Config) CachePath() string {
	if c.Settings.Cache != "" {
		return expandHome(c.Settings.Cache)
	}
	return DefaultCachePath()
}

// DefaultCategory returns the category shown at startup.
func (c *Config) DefaultCategory() store.Category {
	cat, err := store.ParseCategory(c.Interface.DefaultCategory)
	if err != nil {
		return store.CategoryTop
	}
	return cat
}

func DefaultConfigPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "hnterm", "config.yaml")
}

func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "hnterm", "cache.db")
}

// StateDir holds logs and the event journal.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "hnterm")
}

// Defaults returns the embedded default configuration.
func Defaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path ("" means DefaultConfigPath). Options the
// file leaves out keep their default values. A missing file is created
// from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: just use embedded defaults
			writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	s := cfg.Settings
	if s.ExtraPage < 0 {
		return fmt.Errorf("settings.extra_page must be >= 0, got %d", s.ExtraPage)
	}
	if s.CacheAge <= 0 {
		return fmt.Errorf("settings.cache_age must be positive, got %d", s.CacheAge)
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("settings.requests_per_second must be >= 0, got %v", s.RequestsPerSecond)
	}
	if s.FetchTimeout != "" {
		if _, err := time.ParseDuration(s.FetchTimeout); err != nil {
			return fmt.Errorf("settings.fetch_timeout: %w", err)
		}
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("settings.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("settings.base_url scheme must be http or https, got %q", u.Scheme)
	}

	if _, err := store.ParseCategory(cfg.Interface.DefaultCategory); err != nil {
		return fmt.Errorf("interface.default_category: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
