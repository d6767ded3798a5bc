package config

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var validSections = map[string][]string{
	"":         {"site", "build", "nav", "footer", "advanced", "deploy", "feed"},
	"site":     {"name", "url", "author", "default_og_image"},
	"build":    {"ignored_folders", "home_redirect", "homepage_dir", "wiki_prefix", "home_page", "incremental"},
	"nav":      {"items"},
	"footer":   {"copyright_year", "author_name", "author_link"},
	"advanced": {"debounce_ms", "rebuild_interval"},
	"deploy":   {"method", "target", "exclude"},
	"feed":     {"enabled", "title", "description", "language", "items", "full_content", "window"},
}

// warnUnknownKeys reports unrecognized config keys with a did-you-mean
// suggestion. Unknown keys are never fatal.
func warnUnknownKeys(data []byte, path string) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return // the typed unmarshal will surface the parse error
	}

	warnSection(raw, "", path)
	for name, v := range raw {
		if section, ok := v.(map[string]any); ok {
			if _, known := validSections[name]; known {
				warnSection(section, name, path)
			}
		}
	}
}

func warnSection(section map[string]any, name string, path string) {
	valid := validSections[name]
	var unknown []string
	for key := range section {
		if !contains(valid, key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	label := name
	if label == "" {
		label = "top-level"
	}
	for _, key := range unknown {
		args := []any{"key", key, "section", label, "config", path}
		if suggestion := closestKey(key, valid); suggestion != "" {
			args = append(args, "did_you_mean", suggestion)
		}
		slog.Warn("Unknown config key", args...)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// closestKey returns the valid key most similar to key, or "" when nothing
// clears the 0.6 similarity threshold.
func closestKey(key string, valid []string) string {
	best := ""
	bestRatio := 0.0
	for _, v := range valid {
		if r := similarity(strings.ToLower(key), strings.ToLower(v)); r > bestRatio {
			bestRatio = r
			best = v
		}
	}
	if bestRatio >= 0.6 {
		return best
	}
	return ""
}

func similarity(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	d := levenshtein(a, b)
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return 1 - float64(d)/float64(max)
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
