// Package build orchestrates a full site build pass: discover vault pages,
// decide rebuilds against the cache, render markdown through templates, emit
// site-wide artifacts and the feed, then post-process visibility rules.
package build

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/foliate/foliate/internal/cache"
	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/feed"
	"github.com/foliate/foliate/internal/markdown"
	"github.com/foliate/foliate/internal/metrics"
	"github.com/foliate/foliate/internal/page"
	"github.com/foliate/foliate/internal/postprocess"
	"github.com/foliate/foliate/internal/templates"
)

// ErrVaultMissing indicates the configured vault directory does not exist.
// Callers receive it together with an empty Result and decide exit behavior.
var ErrVaultMissing = errors.New("vault directory does not exist")

// recentPageCount is how many recently-updated pages the home page lists.
const recentPageCount = 20

// Options controls a single build invocation.
type Options struct {
	// Force rebuilds every page and clears the output directory first.
	Force bool
	// Incremental overrides the config's build.incremental when non-nil.
	Incremental *bool
	// SinglePage restricts the build to one logical page path. Site-wide
	// artifacts, the home-page re-render and the feed are skipped.
	SinglePage string
}

// Result summarizes one build pass.
type Result struct {
	BuildID        string
	PublicPages    []*page.Page
	PublishedPages []*page.Page
	Rebuilt        int
	Cached         int
	Skipped        int
	Duration       time.Duration
}

// Service runs build passes for one vault. Construct with NewService; inject
// a metrics recorder or logger with the With* methods.
type Service struct {
	cfg      *config.Config
	renderer *markdown.Renderer
	engine   *templates.Engine
	recorder metrics.Recorder
	log      *slog.Logger
}

// NewService creates a build Service for cfg.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		renderer: markdown.NewRenderer(cfg.WikiDirName()),
		engine:   templates.NewEngine(cfg.TemplatesDir()),
		recorder: metrics.NoopRecorder{},
		log:      slog.Default(),
	}
}

// WithRecorder injects a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	s.recorder = r
	return s
}

// WithLogger injects a logger.
func (s *Service) WithLogger(log *slog.Logger) *Service {
	s.log = log
	return s
}

// Run executes one build pass.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: uuid.NewString()}
	log := s.log.With(slog.String("build_id", result.BuildID))

	incremental := s.cfg.Build.Incremental
	if opts.Incremental != nil {
		incremental = *opts.Incremental
	}

	if s.cfg.VaultPath == "" {
		return result, ErrVaultMissing
	}
	if _, err := os.Stat(s.cfg.VaultPath); err != nil {
		return result, fmt.Errorf("%w: %s", ErrVaultMissing, s.cfg.VaultPath)
	}

	buildDir := s.cfg.BuildDir()
	cacheFile := filepath.Join(s.cfg.CacheDir(), cache.FileName)

	force := opts.Force
	buildCache := cache.Cache{}
	if incremental && !force {
		buildCache = cache.Load(cacheFile)
		if cache.GlobalDepsChanged(buildCache, s.cfg.ConfigPath, s.cfg.TemplatesDir()) {
			log.Debug("config or templates changed, forcing full rebuild")
			force = true
			buildCache = cache.Cache{}
		}
	}

	if force {
		if err := os.RemoveAll(buildDir); err != nil {
			return result, s.fail(fmt.Errorf("clean build dir: %w", err))
		}
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return result, s.fail(fmt.Errorf("create build dir: %w", err))
	}

	if err := copyStaticAssets(s.cfg, buildDir, force); err != nil {
		return result, s.fail(err)
	}
	if err := copyUserAssets(s.cfg, buildDir); err != nil {
		return result, s.fail(err)
	}

	log.Info("building", slog.Bool("force", force), slog.Bool("incremental", incremental))

	sources, err := discoverSources(s.cfg, opts.SinglePage, func(string, string) {
		result.Skipped++
	}, log)
	if err != nil {
		return result, s.fail(fmt.Errorf("discover pages: %w", err))
	}

	newCache := cache.Cache{}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, s.fail(err)
		}
		p, rebuilt, err := s.processSource(src, buildDir, buildCache, force, incremental, log)
		if err != nil {
			return result, s.fail(err)
		}
		newCache.Record(src.FilePath)
		result.PublicPages = append(result.PublicPages, p)
		if rebuilt {
			result.Rebuilt++
		} else {
			result.Cached++
		}
		if p.IsPublished() {
			result.PublishedPages = append(result.PublishedPages, p)
		}
	}

	if opts.SinglePage == "" {
		if err := s.renderHomePage(result, buildDir, log); err != nil {
			return result, s.fail(err)
		}
		if err := generateSiteFiles(s.cfg, s.engine, buildDir, result.PublicPages); err != nil {
			return result, s.fail(err)
		}
		if s.cfg.Feed.Enabled {
			entries, err := feed.Generate(result.PublishedPages, s.cfg, s.renderer, buildDir)
			if err != nil {
				return result, s.fail(fmt.Errorf("generate feed: %w", err))
			}
			s.recorder.SetFeedEntries(entries)
		}
	}

	if err := postprocess.Run(s.cfg, result.PublicPages, opts.SinglePage, log); err != nil {
		return result, s.fail(err)
	}

	if incremental && s.cfg.ConfigPath != "" {
		cache.UpdateGlobalDeps(newCache, s.cfg.ConfigPath, s.cfg.TemplatesDir())
		if err := cache.Save(cacheFile, newCache); err != nil {
			return result, s.fail(err)
		}
	}

	result.Duration = time.Since(start)
	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	s.recorder.AddPageDisposition(metrics.PageRebuilt, result.Rebuilt)
	s.recorder.AddPageDisposition(metrics.PageCached, result.Cached)
	s.recorder.AddPageDisposition(metrics.PageSkipped, result.Skipped)

	if incremental && !force {
		log.Info("done",
			slog.Int("rebuilt", result.Rebuilt),
			slog.Int("cached", result.Cached),
			slog.Int("published", len(result.PublishedPages)),
			slog.Duration("elapsed", result.Duration))
	} else {
		log.Info("done",
			slog.Int("public", len(result.PublicPages)),
			slog.Int("published", len(result.PublishedPages)),
			slog.Duration("elapsed", result.Duration))
	}
	return result, nil
}

func (s *Service) fail(err error) error {
	s.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	return err
}

// processSource applies the rebuild decision to one discovered source and
// returns the assembled page. A cache hit keeps HTML empty.
func (s *Service) processSource(src Source, buildDir string, buildCache cache.Cache, force, incremental bool, log *slog.Logger) (*page.Page, bool, error) {
	outputFile := filepath.Join(s.outputDir(buildDir, src.PagePath, src.BaseURL), "index.html")

	info, err := os.Stat(src.FilePath)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", src.FilePath, err)
	}
	mtime := info.ModTime()

	if incremental && !cache.NeedsRebuild(src.FilePath, outputFile, buildCache, force) {
		log.Debug("cached", slog.String("page", src.PagePath))
		p := page.Assemble(src.PagePath, src.Meta, src.Body, "", src.BaseURL, mtime)
		return p, false, nil
	}

	log.Debug("building", slog.String("page", src.PagePath))
	html, err := s.renderer.Render(src.Body, src.BaseURL)
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", src.PagePath, err)
	}
	p := page.Assemble(src.PagePath, src.Meta, src.Body, html, src.BaseURL, mtime)
	if err := s.renderPageToFile(p, buildDir, nil); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// renderHomePage re-renders the home page so its recent-pages listing
// reflects this pass's published set.
func (s *Service) renderHomePage(result *Result, buildDir string, log *slog.Logger) error {
	homeName := s.cfg.Build.HomePage
	var home *page.Page
	for _, p := range result.PublicPages {
		if p.Path == homeName {
			home = p
			break
		}
	}
	if home == nil {
		return nil
	}

	log.Debug("re-rendering home page", slog.String("page", homeName))
	if home.HTML == "" {
		html, err := s.renderer.Render(home.Body, home.BaseURL)
		if err != nil {
			return fmt.Errorf("render %s: %w", homeName, err)
		}
		home.HTML = html
	}
	return s.renderPageToFile(home, buildDir, result.PublishedPages)
}

// renderPageToFile writes a page through page.html into its output
// directory. publishedPages, when non-nil and the page is the home page,
// feeds the recent-pages listing.
func (s *Service) renderPageToFile(p *page.Page, buildDir string, publishedPages []*page.Page) error {
	dir := s.outputDir(buildDir, p.Path, p.BaseURL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create page dir: %w", err)
	}

	var recent []*page.Page
	if p.Path == s.cfg.Build.HomePage && len(publishedPages) > 0 {
		recent = recentPages(publishedPages, s.cfg.Build.HomePage)
	}

	html, err := s.engine.Render("page.html", templates.PageData{
		SiteContext: templates.SiteContextFrom(s.cfg),
		Title:       p.Title,
		Content:     template.HTML(p.HTML),
		Page:        p,
		RecentPages: recent,
		BaseURL:     p.BaseURL,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	return nil
}

// outputDir maps a logical page path to its output directory: homepage
// content lands at the site root, wiki content under the wiki prefix.
func (s *Service) outputDir(buildDir, pagePath, baseURL string) string {
	if baseURL == "/" {
		return filepath.Join(buildDir, filepath.FromSlash(pagePath))
	}
	return filepath.Join(buildDir, s.cfg.WikiDirName(), filepath.FromSlash(pagePath))
}

// recentPages returns the newest published pages by source mtime, excluding
// the home page itself.
func recentPages(publishedPages []*page.Page, homeName string) []*page.Page {
	filtered := make([]*page.Page, 0, len(publishedPages))
	for _, p := range publishedPages {
		if p.Path != homeName {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].FileMtime.After(filtered[j].FileMtime)
	})
	if len(filtered) > recentPageCount {
		filtered = filtered[:recentPageCount]
	}
	return filtered
}
