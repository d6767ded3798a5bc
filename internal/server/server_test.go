package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServer_ServesSiteAndHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "wiki", "Home"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "wiki", "Home", "index.html"), []byte("<h1>Home</h1>"), 0o644))

	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := New(dir, port).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithMetricsRegistry(prom.NewRegistry())
	require.NoError(t, srv.Start(ctx))
	defer func() { _ = srv.Stop(context.Background()) }()

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/wiki/Home/", port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Home")

	resp, err = client.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(fmt.Sprintf("http://localhost:%d/metrics", port))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := New(t.TempDir(), port).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err = srv.Start(context.Background())
	require.Error(t, err)
}
