package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/config"
	"github.com/weinmann-emt/robotcode/internal/core/errors"
	"github.com/weinmann-emt/robotcode/internal/features"
	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/shared/observability"
	"github.com/weinmann-emt/robotcode/internal/workspace"
)

// App wires the workspace, the query features and the observability
// surface together for the CLI.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	ws        *workspace.Workspace
	refs      *features.ReferencesService
	watcher   *workspace.Watcher
	obsServer *ObservabilityServer

	shutdownTracing func(context.Context) error
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	storePath := ""
	if cfg.Store.Enabled {
		storePath = cfg.Store.Path
	}

	ws, err := workspace.New(workspace.Config{
		Roots:                cfg.Paths.Roots,
		ExcludeDirs:          cfg.Exclude.Dirs,
		ExcludeFiles:         cfg.Exclude.Files,
		BuiltinVariables:     cfg.BuiltinVariables(),
		CommandLineVariables: cfg.Variables.CommandLine,
		AnalyzeRate:          cfg.Analysis.Rate,
		AnalyzeBurst:         cfg.Analysis.Burst,
		StorePath:            storePath,
		ProjectKey:           cfg.Store.ProjectKey,
	}, logger)
	if err != nil {
		return nil, err
	}

	refs, err := features.NewReferencesService()
	if err != nil {
		ws.Close()
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		ws:     ws,
		refs:   refs,
	}

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.SetupTracing(context.Background(), cfg.Observability.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing setup failed", "error", err)
		} else {
			app.shutdownTracing = shutdown
		}
	}

	return app, nil
}

func (a *App) Close() {
	a.refs.Close()
	if err := a.ws.Close(); err != nil {
		a.logger.Warn("workspace close failed", "error", err)
	}
}

func (a *App) InitialScan(ctx context.Context) error {
	start := time.Now()
	if err := a.ws.Scan(ctx); err != nil {
		return err
	}
	a.logger.Info("workspace scanned",
		"documents", len(a.ws.Namespaces()),
		"duration", time.Since(start))
	return nil
}

func (a *App) StartWatcher(ctx context.Context) error {
	if !a.cfg.Watch.Enabled {
		a.logger.Debug("watch mode disabled")
		return nil
	}
	w, err := workspace.NewWatcher(a.cfg.Watch.Debounce, a.cfg.Exclude.Dirs, a.cfg.Exclude.Files, func(paths []string) {
		a.ws.HandleChanges(ctx, paths)
	})
	if err != nil {
		return err
	}
	if err := w.Watch(a.cfg.Paths.Roots); err != nil {
		w.Close()
		return err
	}
	a.watcher = w
	a.logger.Info("watching for changes", "roots", a.cfg.Paths.Roots)
	return nil
}

func (a *App) StartObservability(ctx context.Context) error {
	if a.cfg.Observability.MetricsAddr == "" {
		return nil
	}
	a.obsServer = NewObservabilityServer(a.cfg.Observability.MetricsAddr, a.ws)
	return a.obsServer.Start(ctx)
}

func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("watcher close failed", "error", err)
		}
	}
	if a.obsServer != nil {
		if err := a.obsServer.Stop(ctx); err != nil {
			a.logger.Warn("observability server stop failed", "error", err)
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("tracing shutdown failed", "error", err)
		}
	}
}

// parseLocation splits a file:line:col query argument; line and column
// are 1-based on the command line.
func (a *App) parseLocation(arg string) (*namespace.Namespace, protocol.Position, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 3 {
		return nil, protocol.Position{}, errors.Newf(errors.CodeValidationError, "expected file:line:col, got %q", arg)
	}
	file := strings.Join(parts[:len(parts)-2], ":")
	line, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || line < 1 {
		return nil, protocol.Position{}, errors.Newf(errors.CodeValidationError, "bad line number in %q", arg)
	}
	col, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || col < 1 {
		return nil, protocol.Position{}, errors.Newf(errors.CodeValidationError, "bad column number in %q", arg)
	}

	ns, ok := a.lookupDocument(file)
	if !ok {
		return nil, protocol.Position{}, errors.AddContext(
			errors.New(errors.CodeNotFound, "document not in workspace"), errors.CtxPath, file)
	}
	pos := protocol.Position{
		Line:      protocol.UInteger(line - 1),
		Character: protocol.UInteger(col - 1),
	}
	return ns, pos, nil
}

func (a *App) lookupDocument(file string) (*namespace.Namespace, bool) {
	if ns, ok := a.ws.Get(file); ok {
		return ns, true
	}
	// Fall back to a base name match so queries do not need the exact
	// path the scanner stored.
	for _, ns := range a.ws.Namespaces() {
		if filepath.Base(ns.Source) == filepath.Base(file) {
			return ns, true
		}
	}
	return nil, false
}

func (a *App) QueryDefinition(arg string) (string, error) {
	ns, pos, err := a.parseLocation(arg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, loc := range features.GotoDefinition(ns, pos) {
		fmt.Fprintf(&b, "%s:%d:%d\n", loc.URI, loc.Range.Start.Line+1, loc.Range.Start.Character+1)
	}
	if b.Len() == 0 {
		return "no definition found\n", nil
	}
	return b.String(), nil
}

func (a *App) QueryReferences(arg string) (string, error) {
	ns, pos, err := a.parseLocation(arg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, loc := range a.refs.FindReferences(a.ws, ns, pos, true) {
		fmt.Fprintf(&b, "%s:%d:%d\n", loc.URI, loc.Range.Start.Line+1, loc.Range.Start.Character+1)
	}
	if b.Len() == 0 {
		return "no references found\n", nil
	}
	return b.String(), nil
}

func (a *App) QueryCompletions(arg string) (string, error) {
	ns, pos, err := a.parseLocation(arg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, item := range features.Completions(ns, pos) {
		detail := ""
		if item.Detail != nil {
			detail = *item.Detail
		}
		fmt.Fprintf(&b, "%s\t%s\n", item.Label, detail)
	}
	return b.String(), nil
}

func (a *App) QueryFolding(arg string) (string, error) {
	ns, ok := a.lookupDocument(arg)
	if !ok {
		return "", errors.AddContext(
			errors.New(errors.CodeNotFound, "document not in workspace"), errors.CtxPath, arg)
	}
	var b strings.Builder
	for _, fr := range features.FoldingRanges(ns.Doc, features.FoldingOptions{LineFoldingOnly: true}) {
		kind := "region"
		if fr.Kind != nil {
			kind = *fr.Kind
		}
		fmt.Fprintf(&b, "%d-%d\t%s\n", fr.StartLine+1, fr.EndLine+1, kind)
	}
	return b.String(), nil
}

func (a *App) FormatDiagnostics() string {
	var b strings.Builder
	for _, ns := range a.ws.Namespaces() {
		for _, d := range features.Diagnostics(ns) {
			fmt.Fprintf(&b, "%s:%d:%d: %s\n",
				ns.Source, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
		}
	}
	return b.String()
}

func (a *App) PrintSummary() {
	var definitions, imports, unresolved int
	all := a.ws.Namespaces()
	for _, ns := range all {
		definitions += len(ns.Definitions())
		imports += len(ns.Imports())
		unresolved += len(ns.Unresolved())
	}
	fmt.Printf("documents: %d  definitions: %d  imports: %d  unresolved: %d\n",
		len(all), definitions, imports, unresolved)
}
