package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/foliate/foliate/internal/templates"
)

const defaultConfig = `[site]
name = "My Site"
url = "https://example.com"
author = ""

[build]
ignored_folders = ["_private"]
home_redirect = "about"

[nav]
items = [
    { url = "/about/", label = "About" },
    { url = "/wiki/Home/", label = "Wiki" },
]
`

// runInit scaffolds .foliate/ in root: the config file plus editable copies
// of the bundled templates and static assets.
func runInit(root string, force bool) error {
	foliateDir := filepath.Join(root, ".foliate")
	configFile := filepath.Join(foliateDir, "config.toml")

	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf(".foliate/config.toml already exists (use --force to overwrite)")
	}

	if err := os.MkdirAll(foliateDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
		return err
	}
	fmt.Println("Created", configFile)

	templateFS, err := templates.DefaultTemplateFS()
	if err != nil {
		return err
	}
	templatesDir := filepath.Join(foliateDir, "templates")
	created, err := copyDefaults(templateFS, templatesDir, force)
	if err != nil {
		return err
	}
	if created > 0 {
		fmt.Printf("Created %s/ (%d templates)\n", templatesDir, created)
	}

	staticFS, err := templates.DefaultStatic()
	if err != nil {
		return err
	}
	staticDir := filepath.Join(foliateDir, "static")
	created, err = copyDefaults(staticFS, staticDir, force)
	if err != nil {
		return err
	}
	if created > 0 {
		fmt.Printf("Created %s/ (%d files)\n", staticDir, created)
	}

	fmt.Println("\nCustomize your site:")
	fmt.Println("  - Edit .foliate/config.toml for site settings")
	fmt.Println("  - Edit .foliate/static/main.css for styling")
	fmt.Println("  - Edit .foliate/templates/*.html for layout")
	fmt.Println("\nRun 'foliate build' to build your site")
	return nil
}

// copyDefaults writes every file in src into targetDir, skipping files that
// already exist unless force is set. Returns the number written.
func copyDefaults(src fs.FS, targetDir string, force bool) (int, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, err
	}

	created := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		target := filepath.Join(targetDir, entry.Name())
		if _, err := os.Stat(target); err == nil && !force {
			continue
		}
		data, err := fs.ReadFile(src, entry.Name())
		if err != nil {
			return created, err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// runClean removes the build output and cache directories.
func runClean(root string) error {
	cleaned := false
	for _, dir := range []string{
		filepath.Join(root, ".foliate", "build"),
		filepath.Join(root, ".foliate", "cache"),
	} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		fmt.Println("Removed", dir)
		cleaned = true
	}
	if !cleaned {
		fmt.Println("Nothing to clean")
	}
	return nil
}
