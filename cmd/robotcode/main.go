package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/weinmann-emt/robotcode/internal/config"
)

var (
	configPath  = flag.String("config", "./robot.toml", "Path to config file")
	initConfig  = flag.Bool("init", false, "Write a starter robot.toml and exit")
	once        = flag.Bool("once", false, "Run single scan and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
	definition  = flag.String("definition", "", "Resolve definition at file:line:col and exit")
	references  = flag.String("references", "", "List references at file:line:col and exit")
	complete    = flag.String("complete", "", "List completions at file:line:col and exit")
	folding     = flag.String("folding", "", "List folding ranges of a file and exit")
	diagnose    = flag.Bool("diagnostics", false, "Print diagnostics for every document after the scan")
	metricsAddr = flag.String("metrics-addr", "", "Override observability listen address")
)

const VERSION = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("robotcode v%s\n", VERSION)
		os.Exit(0)
	}

	if *initConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *configPath)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./robot.toml" {
			cfg = config.Default()
		} else {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	if !*verbose {
		switch cfg.Log.Level {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		}
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: logLevel}
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if flag.NArg() > 0 {
		cfg.Paths.Roots = flag.Args()
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.InitialScan(ctx); err != nil {
		logger.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	query := false
	for _, q := range []struct {
		arg string
		run func(string) (string, error)
	}{
		{*definition, app.QueryDefinition},
		{*references, app.QueryReferences},
		{*complete, app.QueryCompletions},
		{*folding, app.QueryFolding},
	} {
		if q.arg == "" {
			continue
		}
		query = true
		out, err := q.run(q.arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(out)
	}
	if query {
		os.Exit(0)
	}

	if *diagnose {
		fmt.Print(app.FormatDiagnostics())
	}

	app.PrintSummary()

	if *once {
		return
	}

	if err := app.StartWatcher(ctx); err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	if err := app.StartObservability(ctx); err != nil {
		logger.Error("failed to start observability server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	app.Shutdown()
}
