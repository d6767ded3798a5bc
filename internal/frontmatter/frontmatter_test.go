package frontmatter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_WithFrontmatter_SplitsBlockAndBody(t *testing.T) {
	raw, body, had, err := Split([]byte("---\npublic: true\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("public: true\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_EmptyBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	raw, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF_SplitsBlockAndBody(t *testing.T) {
	raw, body, had, err := Split([]byte("---\r\npublic: true\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("public: true\r\n"), raw)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\npublic: true\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParseBytes_TypedValues(t *testing.T) {
	meta, body, err := ParseBytes([]byte("---\npublic: true\npublished: 2024-03-15\ntags: [go, notes]\ntitle: Hello\n---\n# Hello\n"))
	require.NoError(t, err)
	require.Equal(t, "# Hello\n", body)

	require.True(t, meta.Bool("public"))
	require.Equal(t, "Hello", meta.String("title", ""))
	require.Equal(t, []string{"go", "notes"}, meta.StringList("tags"))

	published, ok := meta.Value("published").(time.Time)
	require.True(t, ok)
	require.Equal(t, 2024, published.Year())
}

func TestParse_MalformedYAML_ReturnsErrorAndEmptyMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.md")
	require.NoError(t, os.WriteFile(path, []byte("---\n: [unclosed\n---\nbody\n"), 0o644))

	meta, body, err := Parse(path)
	require.Error(t, err)
	require.Empty(t, meta)
	require.Empty(t, body)
}

func TestMeta_Truthy(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"date", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"string", "2024-01-01", true},
		{"empty string", "", false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Meta{"published": tc.value}
			require.Equal(t, tc.want, m.Truthy("published"))
		})
	}
	require.False(t, Meta{}.Truthy("published"))
}
