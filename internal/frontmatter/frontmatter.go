// Package frontmatter splits markdown files into a YAML metadata block and
// the remaining body, and gives typed access to the metadata values.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates a leading `---` delimited YAML block from the markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (raw []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[start:], closeLine) {
		return []byte{}, content[start+len(closeLine):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing "---" at EOF without a trailing newline still counts.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			return content[start : len(content)-3], nil, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:end], content[bodyStart:], true, nil
}

// Parse reads a markdown file and returns its metadata and body.
//
// Malformed frontmatter is an expected environmental condition, not a
// programming error: Parse reports it through err while still returning an
// empty Meta and body so callers can degrade the file to empty content.
func Parse(path string) (Meta, string, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Meta{}, "", fmt.Errorf("read %s: %w", path, err)
	}
	return ParseBytes(content)
}

// ParseBytes parses an in-memory markdown document.
func ParseBytes(content []byte) (Meta, string, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Meta{}, "", err
	}
	if !had {
		return Meta{}, string(body), nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return Meta{}, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return Meta(fields), string(body), nil
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
