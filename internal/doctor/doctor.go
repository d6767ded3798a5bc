// Package doctor runs site diagnostics: config discovery and parsing,
// template availability, vault layout, and deploy target sanity.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/templates"
)

// Report collects diagnostic findings by severity.
type Report struct {
	Errors   []string
	Warnings []string
	OK       []string
}

// Healthy reports whether no errors were found.
func (r *Report) Healthy() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) okf(format string, args ...any) {
	r.OK = append(r.OK, fmt.Sprintf(format, args...))
}

// Run diagnoses the site rooted at or above start and returns the findings.
// A missing or unparsable config short-circuits the remaining checks.
func Run(start string) *Report {
	report := &Report{}

	configPath := config.FindConfig(start)
	if configPath == "" {
		report.errorf("No .foliate/config.toml found. Run 'foliate init' first.")
		return report
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		report.errorf("Unable to load %s: %v", displayPath(configPath, start), err)
		return report
	}
	report.okf("Config loaded: %s", displayPath(configPath, start))

	checkVault(report, cfg, start)
	checkTemplates(report, cfg, start)
	checkFeed(report, cfg)
	checkDeploy(report, cfg, start)

	return report
}

func checkVault(report *Report, cfg *config.Config, start string) {
	if cfg.VaultPath == "" {
		report.errorf("Vault path could not be determined from config location.")
		return
	}
	if info, err := os.Stat(cfg.VaultPath); err != nil || !info.IsDir() {
		report.errorf("Vault directory not found: %s", displayPath(cfg.VaultPath, start))
		return
	}
	report.okf("Vault directory: %s", displayPath(cfg.VaultPath, start))

	if cfg.Build.HomepageDir != "" {
		home := filepath.Join(cfg.VaultPath, cfg.Build.HomepageDir)
		if _, err := os.Stat(home); err != nil {
			report.warnf("Homepage directory %s not found, no root page will be built.", cfg.Build.HomepageDir)
		}
	}
}

func checkTemplates(report *Report, cfg *config.Config, start string) {
	engine := templates.NewEngine(cfg.TemplatesDir())
	available := engine.List()

	var missing []string
	for _, name := range templates.Required {
		if _, present := available[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		report.errorf("Missing required templates: %s", strings.Join(missing, ", "))
	} else {
		report.okf("Templates available: %s", strings.Join(templates.Required, ", "))
	}

	overridden := overriddenTemplates(available)
	if len(overridden) > 0 {
		report.okf("User template overrides: %s", strings.Join(overridden, ", "))
	}

	if _, err := os.Stat(cfg.TemplatesDir()); err == nil {
		report.okf("User templates directory: %s", displayPath(cfg.TemplatesDir(), start))
	} else {
		report.okf("User templates directory not found (using bundled defaults).")
	}
	if _, err := os.Stat(cfg.StaticDir()); err == nil {
		report.okf("User static directory: %s", displayPath(cfg.StaticDir(), start))
	} else {
		report.okf("User static directory not found (using bundled defaults).")
	}
}

func checkFeed(report *Report, cfg *config.Config) {
	if !cfg.Feed.Enabled {
		return
	}
	if cfg.Site.URL == "" {
		report.errorf("Feed enabled but site.url is not set, entries need absolute links.")
		return
	}
	if cfg.Feed.Items <= 0 {
		report.warnf("feed.items is %d, the feed will be empty.", cfg.Feed.Items)
	}
	if cfg.Feed.Window <= 0 {
		report.warnf("feed.window is %d, no pages will qualify.", cfg.Feed.Window)
	}
	report.okf("Feed enabled: %d items, %d day window.", cfg.Feed.Items, cfg.Feed.Window)
}

func checkDeploy(report *Report, cfg *config.Config, start string) {
	target := cfg.Deploy.Target
	if target == "" {
		return
	}
	if !filepath.IsAbs(target) && cfg.VaultPath != "" {
		target = filepath.Join(cfg.VaultPath, target)
	}
	if _, err := os.Stat(target); err != nil {
		report.warnf("Deploy target not found: %s", displayPath(target, start))
		return
	}
	if _, err := git.PlainOpen(target); err != nil {
		report.warnf("Deploy target is not a git repository: %s", displayPath(target, start))
		return
	}
	report.okf("Deploy target ready: %s", displayPath(target, start))
}

// overriddenTemplates lists templates sourced from the user directory.
func overriddenTemplates(available map[string]string) []string {
	var names []string
	for name, origin := range available {
		if origin == templates.OriginUser {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// displayPath renders path relative to base when possible.
func displayPath(path, base string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
