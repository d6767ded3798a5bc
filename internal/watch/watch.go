// Package watch rebuilds the site when vault files change. Filesystem
// events are debounced through a single persistent timer; bursts coalesce
// into one rebuild, and events arriving during a running build queue exactly
// one follow-up.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/foliate/foliate/internal/build"
	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/metrics"
)

// Builder runs one build pass. Satisfied by *build.Service.
type Builder interface {
	Run(ctx context.Context, opts build.Options) (*build.Result, error)
}

// fullRebuildExts are the changed-file types that invalidate rendered
// output globally (templates, styles, config).
var fullRebuildExts = map[string]bool{".html": true, ".css": true, ".toml": true}

// relevantExts are the file types worth reacting to at all.
var relevantExts = map[string]bool{
	".md": true, ".qmd": true, ".html": true, ".css": true, ".toml": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".bmp": true, ".ico": true,
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".mp4": true, ".mp3": true, ".wav": true, ".avi": true, ".mov": true,
	".zip": true, ".tar": true, ".gz": true,
}

// rebuildRequest is the coalesced outcome of one debounce window.
type rebuildRequest struct {
	force      bool
	singlePage string
}

// Coordinator watches a vault and triggers rebuilds.
type Coordinator struct {
	cfg      *config.Config
	builder  Builder
	log      *slog.Logger
	recorder metrics.Recorder
	debounce time.Duration

	mu      sync.Mutex
	changed map[string]bool
	queued  rebuildRequest
	hasReq  bool
}

// NewCoordinator creates a Coordinator for cfg using builder for rebuilds.
func NewCoordinator(cfg *config.Config, builder Builder) *Coordinator {
	debounce := time.Duration(cfg.Advanced.DebounceMillis) * time.Millisecond
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Coordinator{
		cfg:      cfg,
		builder:  builder,
		log:      slog.Default(),
		recorder: metrics.NoopRecorder{},
		debounce: debounce,
		changed:  map[string]bool{},
	}
}

// WithLogger injects a logger.
func (c *Coordinator) WithLogger(log *slog.Logger) *Coordinator {
	c.log = log
	return c
}

// WithRecorder injects a metrics recorder.
func (c *Coordinator) WithRecorder(r metrics.Recorder) *Coordinator {
	c.recorder = r
	return c
}

// Run watches until ctx is canceled. The initial build is the caller's
// responsibility; Run only reacts to changes.
func (c *Coordinator) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := c.addDirsRecursive(watcher, c.cfg.VaultPath); err != nil {
		return err
	}

	scheduler, err := c.startPeriodicRebuild(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	signal := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.rebuildWorker(ctx, signal)
	}()
	defer wg.Wait()

	// Persistent debounce timer, armed on demand.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var timerC <-chan time.Time

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.debounce)
		timerC = timer.C
	}

	c.log.Info("watching for changes", slog.String("vault", c.cfg.VaultPath))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !c.handleEvent(watcher, ev) {
				continue
			}
			resetTimer()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watcher error", slog.Any("error", err))

		case <-timerC:
			timerC = nil
			c.enqueueRebuild(signal)
		}
	}
}

// handleEvent filters one filesystem event and records it in the pending
// change set. Returns true when the debounce timer should reset.
func (c *Coordinator) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = c.addDirsRecursive(watcher, ev.Name)
			return false
		}
	}
	if c.shouldIgnore(ev.Name) {
		return false
	}

	c.log.Debug("change detected",
		slog.String("path", ev.Name), slog.String("op", ev.Op.String()))

	c.mu.Lock()
	c.changed[ev.Name] = true
	c.mu.Unlock()
	return true
}

// enqueueRebuild classifies the pending change set into a rebuild request
// and signals the worker. Requests queued while a build runs merge.
func (c *Coordinator) enqueueRebuild(signal chan struct{}) {
	c.mu.Lock()
	changes := c.changed
	c.changed = map[string]bool{}

	req := classify(changes, c.cfg)
	if c.hasReq {
		req = merge(c.queued, req)
	}
	c.queued = req
	c.hasReq = true
	c.mu.Unlock()

	select {
	case signal <- struct{}{}:
	default:
	}
}

func (c *Coordinator) rebuildWorker(ctx context.Context, signal chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
		}

		c.mu.Lock()
		if !c.hasReq {
			c.mu.Unlock()
			continue
		}
		req := c.queued
		c.hasReq = false
		c.mu.Unlock()

		kind := "incremental"
		if req.force {
			kind = "full"
		} else if req.singlePage != "" {
			kind = "single_page"
		}
		c.recorder.IncWatchEvent(kind)

		c.log.Info("rebuilding", slog.String("kind", kind))
		start := time.Now()
		if _, err := c.builder.Run(ctx, build.Options{
			Force:      req.force,
			SinglePage: req.singlePage,
		}); err != nil {
			c.log.Error("rebuild failed", slog.Any("error", err))
			continue
		}
		c.log.Info("rebuild complete",
			slog.Duration("elapsed", time.Since(start)))
	}
}

// startPeriodicRebuild schedules full rebuilds at the configured interval,
// when one is set.
func (c *Coordinator) startPeriodicRebuild(ctx context.Context) (gocron.Scheduler, error) {
	if c.cfg.Advanced.RebuildInterval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(c.cfg.Advanced.RebuildInterval)
	if err != nil {
		return nil, fmt.Errorf("parse rebuild_interval: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			c.recorder.IncWatchEvent("scheduled")
			c.log.Info("scheduled full rebuild")
			if _, err := c.builder.Run(ctx, build.Options{Force: true}); err != nil {
				c.log.Error("scheduled rebuild failed", slog.Any("error", err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule rebuild job: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

// shouldIgnore filters out events that must not trigger rebuilds: output and
// cache trees, VCS internals, hidden and editor temp files, ignored folders,
// and file types the build does not consume.
func (c *Coordinator) shouldIgnore(path string) bool {
	normalized := filepath.ToSlash(path)
	if strings.Contains(normalized, "/.git/") ||
		strings.Contains(normalized, "/.foliate/build/") ||
		strings.Contains(normalized, "/.foliate/cache/") {
		return true
	}
	for _, folder := range c.cfg.Build.IgnoredFolders {
		if strings.Contains(normalized, "/"+folder+"/") {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") || strings.HasPrefix(base, ".#") {
		return true
	}
	if base == ".DS_Store" || base == "Thumbs.db" {
		return true
	}

	return !relevantExts[strings.ToLower(filepath.Ext(path))]
}

func (c *Coordinator) addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		normalized := filepath.ToSlash(path)
		base := filepath.Base(path)
		if base == ".git" ||
			strings.HasSuffix(normalized, "/.foliate/build") ||
			strings.HasSuffix(normalized, "/.foliate/cache") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			// The watch stays functional for the directories that did add.
			return nil
		}
		return nil
	})
}

// classify turns a change set into a rebuild request: template, style or
// config changes force a full rebuild; a single public markdown change
// narrows to a single-page pass; anything else is a normal incremental pass.
func classify(changes map[string]bool, cfg *config.Config) rebuildRequest {
	var mdFiles []string
	force := false
	for path := range changes {
		ext := strings.ToLower(filepath.Ext(path))
		if fullRebuildExts[ext] {
			force = true
		} else if ext == ".md" {
			mdFiles = append(mdFiles, path)
		}
	}
	if force {
		return rebuildRequest{force: true}
	}
	if len(changes) == 1 && len(mdFiles) == 1 {
		if pagePath, ok := publicPagePath(mdFiles[0], cfg); ok {
			return rebuildRequest{singlePage: pagePath}
		}
	}
	return rebuildRequest{}
}

func merge(a, b rebuildRequest) rebuildRequest {
	if a.force || b.force {
		return rebuildRequest{force: true}
	}
	if a.singlePage != "" && a.singlePage == b.singlePage {
		return a
	}
	// Different pages (or a broader pass) pending: fall back to a normal
	// incremental pass covering both.
	if a.singlePage != b.singlePage {
		return rebuildRequest{}
	}
	return a
}
