// Package workspace tracks every analyzed document of a project root,
// rebuilding namespaces on edits and file events. Consumers always see
// either the previous complete pass or the new one, never a half-built
// state.
package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/weinmann-emt/robotcode/internal/core/errors"
	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/rfparser"
	"github.com/weinmann-emt/robotcode/internal/shared/observability"
	"github.com/weinmann-emt/robotcode/internal/shared/util"
)

// Config shapes one workspace instance.
type Config struct {
	// Roots are directories scanned and watched for suite files.
	Roots []string
	// ExcludeDirs and ExcludeFiles are glob patterns matched against
	// base names.
	ExcludeDirs  []string
	ExcludeFiles []string

	// Build options forwarded to every analysis pass.
	BuiltinVariables     []string
	CommandLineVariables map[string]string

	// AnalyzeRate limits reanalysis per document; zero disables limiting.
	AnalyzeRate  float64
	AnalyzeBurst int

	// StorePath enables the persistent symbol store when non-empty.
	StorePath  string
	ProjectKey string
}

// Workspace holds the current namespace of every document.
type Workspace struct {
	cfg      Config
	logger   *slog.Logger
	limiters *util.LimiterRegistry
	store    *SymbolStore

	mu         sync.RWMutex
	namespaces map[string]*namespace.Namespace
}

func New(cfg Config, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ws := &Workspace{
		cfg:        cfg,
		logger:     logger,
		namespaces: make(map[string]*namespace.Namespace),
	}
	if cfg.AnalyzeRate > 0 {
		burst := cfg.AnalyzeBurst
		if burst <= 0 {
			burst = 1
		}
		ws.limiters = util.NewLimiterRegistry(cfg.AnalyzeRate, burst, 5*time.Minute)
	}
	if cfg.StorePath != "" {
		store, err := OpenSymbolStore(cfg.StorePath, cfg.ProjectKey)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "open symbol store")
		}
		ws.store = store
	}
	return ws, nil
}

func (ws *Workspace) Close() error {
	if ws.store != nil {
		return ws.store.Close()
	}
	return nil
}

// Store exposes the persistent symbol store, nil when not configured.
func (ws *Workspace) Store() *SymbolStore {
	return ws.store
}

func (ws *Workspace) buildOptions() namespace.Options {
	return namespace.Options{
		BuiltinVariables:     ws.cfg.BuiltinVariables,
		CommandLineVariables: ws.cfg.CommandLineVariables,
	}
}

// Analyze parses content for path and swaps in the resulting namespace.
// The previous namespace stays visible until the new one is complete.
func (ws *Workspace) Analyze(ctx context.Context, path string, content []byte) (*namespace.Namespace, error) {
	if ws.limiters != nil {
		if err := ws.limiters.Get(path).Wait(ctx, 1); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeConflict, "analysis rate limit"), errors.CtxPath, path)
		}
	}

	start := time.Now()
	doc := rfparser.Parse(path, content)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())

	ns := namespace.Build(doc, ws.buildOptions())
	namespace.Resolve(ctx, ns, ws.buildOptions())

	ws.mu.Lock()
	ws.namespaces[path] = ns
	var defs, imps int
	for _, n := range ws.namespaces {
		defs += len(n.Definitions())
		imps += len(n.Imports())
	}
	ws.mu.Unlock()
	observability.VariableDefinitions.Set(float64(defs))
	observability.ImportEntities.Set(float64(imps))

	if ws.store != nil {
		if err := ws.store.SyncNamespace(ns); err != nil {
			ws.logger.Warn("symbol store sync failed", "path", path, "error", err)
		}
	}

	ws.logger.Debug("document analyzed",
		"path", path,
		"pass", ns.PassID,
		"definitions", len(ns.Definitions()),
		"unresolved", len(ns.Unresolved()))
	return ns, nil
}

// AnalyzeFile reads path from disk and analyzes it.
func (ws *Workspace) AnalyzeFile(ctx context.Context, path string) (*namespace.Namespace, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read suite file"), errors.CtxPath, path)
	}
	return ws.Analyze(ctx, path, content)
}

// Remove drops a document from the workspace and the store.
func (ws *Workspace) Remove(path string) {
	ws.mu.Lock()
	_, existed := ws.namespaces[path]
	delete(ws.namespaces, path)
	ws.mu.Unlock()

	if existed && ws.store != nil {
		if err := ws.store.DeleteSource(path); err != nil {
			ws.logger.Warn("symbol store delete failed", "path", path, "error", err)
		}
	}
}

// Get returns the current namespace of a document.
func (ws *Workspace) Get(path string) (*namespace.Namespace, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	ns, ok := ws.namespaces[path]
	return ns, ok
}

// Namespaces returns every current namespace, sorted by source path for
// deterministic cross-document query results.
func (ws *Workspace) Namespaces() []*namespace.Namespace {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]*namespace.Namespace, 0, len(ws.namespaces))
	for _, ns := range ws.namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// IsSuiteFile reports whether path names a Robot Framework file the
// workspace should analyze.
func IsSuiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".robot", ".resource":
		return true
	}
	return false
}

// Scan walks the configured roots and analyzes every suite file found.
func (ws *Workspace) Scan(ctx context.Context) error {
	excluded, err := compileGlobs(ws.cfg.ExcludeDirs)
	if err != nil {
		return err
	}
	excludedFiles, err := compileGlobs(ws.cfg.ExcludeFiles)
	if err != nil {
		return err
	}

	for _, root := range ws.cfg.Roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if matchBase(excluded, path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsSuiteFile(path) || matchBase(excludedFiles, path) {
				return nil
			}
			if _, err := ws.AnalyzeFile(ctx, path); err != nil {
				ws.logger.Warn("initial analysis failed", "path", path, "error", err)
			}
			return nil
		})
		if err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "scan workspace root"), errors.CtxPath, root)
		}
	}
	return nil
}

// inRoots reports whether path lies under a configured root. An empty
// root set or a "." root accepts everything.
func (ws *Workspace) inRoots(path string) bool {
	if len(ws.cfg.Roots) == 0 {
		return true
	}
	for _, root := range ws.cfg.Roots {
		if root == "." || util.HasPathPrefix(path, root) {
			return true
		}
	}
	return false
}

// HandleChanges reanalyzes or drops the given paths, typically from a
// watcher batch.
func (ws *Workspace) HandleChanges(ctx context.Context, paths []string) {
	for _, path := range paths {
		if !IsSuiteFile(path) || !ws.inRoots(path) {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			ws.Remove(path)
			ws.logger.Info("document removed", "path", path)
			continue
		}
		if _, err := ws.AnalyzeFile(ctx, path); err != nil {
			ws.logger.Warn("reanalysis failed", "path", path, "error", err)
		}
	}
}
