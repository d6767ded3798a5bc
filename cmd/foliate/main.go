package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/foliate/foliate/internal/build"
	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/deploy"
	"github.com/foliate/foliate/internal/doctor"
	"github.com/foliate/foliate/internal/metrics"
	"github.com/foliate/foliate/internal/server"
	"github.com/foliate/foliate/internal/version"
	"github.com/foliate/foliate/internal/watch"
)

var CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `short:"V" help:"Print version and exit"`

	Init struct {
		Force bool `short:"f" help:"Overwrite existing files"`
	} `cmd:"" help:"Initialize a new foliate project in the current directory"`

	Build struct {
		Force         bool   `short:"f" help:"Force full rebuild"`
		Page          string `help:"Build a single page by its logical path"`
		NoIncremental bool   `help:"Disable the build cache for this run"`
		Serve         bool   `short:"s" help:"Start local server after build"`
		Port          int    `short:"p" help:"Server port" default:"8000"`
	} `cmd:"" help:"Build the static site"`

	Watch struct {
		Port int `short:"p" help:"Server port" default:"8000"`
	} `cmd:"" help:"Watch for changes, rebuild automatically and serve the site"`

	Clean struct{} `cmd:"" help:"Remove build artifacts"`

	Deploy struct {
		DryRun  bool   `short:"n" help:"Show what would be done without executing"`
		Message string `short:"m" help:"Custom commit message"`
		Build   bool   `short:"b" help:"Build site before deploying"`
	} `cmd:"" help:"Deploy built site to the configured target"`

	Doctor struct{} `cmd:"" help:"Diagnose configuration and template problems"`
}

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("foliate"),
		kong.Description("Minimal static site generator for markdown vaults."),
		kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch kctx.Command() {
	case "init":
		err = runInit(mustGetwd(), CLI.Init.Force)
	case "build":
		err = runBuild()
	case "watch":
		err = runWatch()
	case "clean":
		err = runClean(mustGetwd())
	case "deploy":
		err = runDeploy()
	case "doctor":
		err = runDoctor()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return wd
}

func loadConfig() (*config.Config, error) {
	return config.FindAndLoad(mustGetwd())
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := build.Options{
		Force:      CLI.Build.Force,
		SinglePage: CLI.Build.Page,
	}
	if CLI.Build.NoIncremental {
		incremental := false
		opts.Incremental = &incremental
	}

	result, err := build.NewService(cfg).Run(context.Background(), opts)
	if err != nil {
		return err
	}
	if len(result.PublicPages) == 0 {
		return errors.New("no public pages found to build")
	}

	if CLI.Build.Serve {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		srv := server.New(cfg.BuildDir(), CLI.Build.Port)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Serving at %s, press Ctrl+C to stop\n", srv.URL())
		<-ctx.Done()
	}
	return nil
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	svc := build.NewService(cfg).WithRecorder(recorder)

	// Force the first build so stale output from prior runs never gets
	// served while watching.
	if _, err := svc.Run(ctx, build.Options{Force: true}); err != nil {
		if errors.Is(err, build.ErrVaultMissing) {
			return err
		}
		// Keep watching; a later change may fix the build.
		slog.Error("initial build failed", slog.Any("error", err))
	}

	srv := server.New(cfg.BuildDir(), CLI.Watch.Port).WithMetricsRegistry(registry)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Serving at %s, watching for changes. Press Ctrl+C to stop\n", srv.URL())

	coordinator := watch.NewCoordinator(cfg, svc).WithRecorder(recorder)
	if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDeploy() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if CLI.Deploy.Build {
		result, err := build.NewService(cfg).Run(context.Background(), build.Options{})
		if err != nil {
			return err
		}
		if len(result.PublicPages) == 0 {
			return errors.New("no public pages found to build")
		}
	}

	committed, err := deploy.New(cfg).Run(deploy.Options{
		DryRun:  CLI.Deploy.DryRun,
		Message: CLI.Deploy.Message,
	})
	if err != nil {
		return err
	}
	if committed {
		fmt.Println("Deployed.")
	}
	return nil
}

func runDoctor() error {
	report := doctor.Run(mustGetwd())
	for _, finding := range report.Errors {
		fmt.Println("[error]", finding)
	}
	for _, finding := range report.Warnings {
		fmt.Println("[warn] ", finding)
	}
	for _, finding := range report.OK {
		fmt.Println("[ok]   ", finding)
	}
	if !report.Healthy() {
		return fmt.Errorf("%d problem(s) found", len(report.Errors))
	}
	return nil
}
