package feed

import (
	"strings"
	"time"

	"github.com/foliate/foliate/internal/page"
)

// ParseDate normalizes a frontmatter date value to UTC. Accepted forms are
// time.Time (YAML dates), ISO date strings ("2024-03-15") and ISO datetime
// strings with or without zone ("2024-03-15T10:30:00", "...Z", "...+09:00").
func ParseDate(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value.UTC(), true
	case string:
		if strings.Contains(value, "T") {
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				return t.UTC(), true
			}
			if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
				return t.UTC(), true
			}
			return time.Time{}, false
		}
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// PublishedDate resolves a page's publication time: a date-valued
// `published` field first (boolean flag values are not dates), then `date`,
// then the source file's mtime.
func PublishedDate(p *page.Page) (time.Time, bool) {
	if v := p.Meta.Value("published"); v != nil {
		if _, isBool := v.(bool); !isBool {
			if t, ok := ParseDate(v); ok {
				return t, true
			}
		}
	}
	if v := p.Meta.Value("date"); v != nil {
		if t, ok := ParseDate(v); ok {
			return t, true
		}
	}
	if !p.FileMtime.IsZero() {
		return p.FileMtime.UTC(), true
	}
	return time.Time{}, false
}

// ModifiedDate resolves a page's last-modified time: the `modified`
// frontmatter field, then the source file's mtime, then the published date.
func ModifiedDate(p *page.Page) (time.Time, bool) {
	if v := p.Meta.Value("modified"); v != nil {
		if t, ok := ParseDate(v); ok {
			return t, true
		}
	}
	if !p.FileMtime.IsZero() {
		return p.FileMtime.UTC(), true
	}
	return PublishedDate(p)
}

// Classify splits pages into new (published within the window, boundary
// inclusive) and updated (published earlier but modified within the window).
// Both lists sort descending by their respective date; equal dates order by
// ascending path so output is deterministic.
func Classify(pages []*page.Page, windowDays int, now time.Time) (newPages, updatedPages []*page.Page) {
	windowStart := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	for _, p := range pages {
		published, ok := PublishedDate(p)
		if !ok {
			continue
		}
		if !published.Before(windowStart) {
			newPages = append(newPages, p)
			continue
		}
		if modified, ok := ModifiedDate(p); ok && !modified.Before(windowStart) {
			updatedPages = append(updatedPages, p)
		}
	}

	sortByDate(newPages, func(p *page.Page) time.Time {
		t, _ := PublishedDate(p)
		return t
	})
	sortByDate(updatedPages, func(p *page.Page) time.Time {
		t, _ := ModifiedDate(p)
		return t
	})
	return newPages, updatedPages
}
