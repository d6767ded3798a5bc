// Package config loads and validates the site configuration from
// .foliate/config.toml and derives the paths and base URLs the build uses.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrConfigNotFound indicates no .foliate/config.toml was found searching
// upward from the start directory.
var ErrConfigNotFound = errors.New("no .foliate/config.toml found (run 'foliate init' first)")

// SiteConfig holds site-level metadata.
type SiteConfig struct {
	Name           string `toml:"name"`
	URL            string `toml:"url"`
	Author         string `toml:"author"`
	DefaultOGImage string `toml:"default_og_image"`
}

// BuildConfig holds build behavior settings.
type BuildConfig struct {
	IgnoredFolders []string `toml:"ignored_folders"`
	HomeRedirect   string   `toml:"home_redirect"`
	HomepageDir    string   `toml:"homepage_dir"`
	WikiPrefix     string   `toml:"wiki_prefix"`
	HomePage       string   `toml:"home_page"`
	Incremental    bool     `toml:"incremental"`
}

// NavItem is a single navigation entry.
type NavItem struct {
	URL     string `toml:"url"`
	Label   string `toml:"label"`
	Logo    string `toml:"logo"`
	LogoAlt string `toml:"logo_alt"`
}

// NavConfig holds the navigation items.
type NavConfig struct {
	Items []NavItem `toml:"items"`
}

// FooterConfig holds footer display settings.
type FooterConfig struct {
	CopyrightYear int    `toml:"copyright_year"`
	AuthorName    string `toml:"author_name"`
	AuthorLink    string `toml:"author_link"`
}

// AdvancedConfig holds settings that rarely need changing.
type AdvancedConfig struct {
	// DebounceMillis is the watch-mode debounce delay.
	DebounceMillis int `toml:"debounce_ms"`
	// RebuildInterval optionally schedules periodic full rebuilds in watch
	// mode (Go duration string, e.g. "1h"); empty disables.
	RebuildInterval string `toml:"rebuild_interval"`
}

// DeployConfig holds deployment settings.
type DeployConfig struct {
	Method  string   `toml:"method"`
	Target  string   `toml:"target"`
	Exclude []string `toml:"exclude"`
}

// FeedConfig holds Atom feed settings.
type FeedConfig struct {
	Enabled     bool   `toml:"enabled"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Language    string `toml:"language"`
	Items       int    `toml:"items"`
	FullContent bool   `toml:"full_content"`
	Window      int    `toml:"window"`
}

// Config is the immutable configuration for one build invocation.
type Config struct {
	Site     SiteConfig     `toml:"site"`
	Build    BuildConfig    `toml:"build"`
	Nav      NavConfig      `toml:"nav"`
	Footer   FooterConfig   `toml:"footer"`
	Advanced AdvancedConfig `toml:"advanced"`
	Deploy   DeployConfig   `toml:"deploy"`
	Feed     FeedConfig     `toml:"feed"`

	// VaultPath and ConfigPath are computed at load time, not read from TOML.
	VaultPath  string `toml:"-"`
	ConfigPath string `toml:"-"`
}

// Default returns a Config populated with defaults and no vault attached.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Name:           "My Site",
			URL:            "https://example.com",
			DefaultOGImage: "/assets/images/default-preview.png",
		},
		Build: BuildConfig{
			IgnoredFolders: []string{"_private"},
			HomeRedirect:   "about",
			HomepageDir:    "_homepage",
			WikiPrefix:     "wiki",
			HomePage:       "Home",
			Incremental:    true,
		},
		Nav: NavConfig{Items: []NavItem{
			{URL: "/about/", Label: "About"},
			{URL: "/wiki/Home/", Label: "Wiki"},
		}},
		Footer: FooterConfig{
			CopyrightYear: 2025,
			AuthorLink:    "about/",
		},
		Advanced: AdvancedConfig{
			DebounceMillis: 200,
		},
		Deploy: DeployConfig{
			Method:  "github-pages",
			Exclude: []string{"CNAME", ".gitignore", ".gitmodules", ".claude"},
		},
		Feed: FeedConfig{
			Enabled:     true,
			Language:    "en",
			Items:       20,
			FullContent: true,
			Window:      30,
		},
	}
}

// Load reads configuration from the given config.toml path. A missing file
// yields defaults with the vault path derived from the config location.
// Unknown keys are warned about, never fatal.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.ConfigPath = path
	// .foliate/config.toml -> vault root is two levels up.
	cfg.VaultPath = filepath.Dir(filepath.Dir(path))

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	warnUnknownKeys(data, path)

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Deploy.Target = expandPath(cfg.Deploy.Target)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// FindAndLoad searches from start upward for .foliate/config.toml and loads
// it. start defaults to the working directory when empty.
func FindAndLoad(start string) (*Config, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		start = wd
	}
	path := FindConfig(start)
	if path == "" {
		return nil, ErrConfigNotFound
	}
	return Load(path)
}

// FindConfig returns the path of the nearest .foliate/config.toml at or
// above start, or "" when none exists.
func FindConfig(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".foliate", "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// BuildDir is the build output directory.
func (c *Config) BuildDir() string {
	return filepath.Join(c.foliateDir(), "build")
}

// CacheDir is the build cache directory.
func (c *Config) CacheDir() string {
	return filepath.Join(c.foliateDir(), "cache")
}

// TemplatesDir is the user template override directory (may not exist).
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.foliateDir(), "templates")
}

// StaticDir is the user static override directory (may not exist).
func (c *Config) StaticDir() string {
	return filepath.Join(c.foliateDir(), "static")
}

func (c *Config) foliateDir() string {
	root := c.VaultPath
	if root == "" {
		root = "."
	}
	return filepath.Join(root, ".foliate")
}

// WikiDirName is the wiki prefix without surrounding slashes ("" when the
// wiki lives at the site root).
func (c *Config) WikiDirName() string {
	return strings.Trim(c.Build.WikiPrefix, "/")
}

// WikiBaseURL is the URL prefix for wiki content: "/<prefix>/", or "/" when
// no prefix is configured.
func (c *Config) WikiBaseURL() string {
	if name := c.WikiDirName(); name != "" {
		return "/" + name + "/"
	}
	return "/"
}

// FeedTitle resolves the feed title, falling back to the site name.
func (c *Config) FeedTitle() string {
	if c.Feed.Title != "" {
		return c.Feed.Title
	}
	return c.Site.Name
}

// FeedDescription resolves the feed subtitle.
func (c *Config) FeedDescription() string {
	if c.Feed.Description != "" {
		return c.Feed.Description
	}
	return c.Site.Name + " - Recent updates"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOLIATE_SITE_URL"); v != "" {
		cfg.Site.URL = v
	}
	if v := os.Getenv("FOLIATE_DEPLOY_TARGET"); v != "" {
		cfg.Deploy.Target = expandPath(v)
	}
}

func expandPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
