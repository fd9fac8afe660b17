package workspace

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/shared/util"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

const sqliteDriverName = "sqlite"

// DefinitionRecord is one persisted variable definition row.
type DefinitionRecord struct {
	Source     string
	Name       string
	Type       string
	Line       int
	Col        int
	EndLine    int
	EndCol     int
	KeywordRef string
	Resolvable bool
}

// ImportRecord is one persisted import row.
type ImportRecord struct {
	Source string
	Kind   string
	Name   string
	Args   string
	Alias  string
	Line   int
}

// SymbolStore persists the definitions and imports of every analyzed
// document so cross-session queries survive a restart. One writer, WAL
// mode, rows partitioned by project key.
type SymbolStore struct {
	db         *sql.DB
	projectKey string
	lookupStmt *sql.Stmt

	cacheMu     sync.RWMutex
	lookupCache map[string][]DefinitionRecord
}

func OpenSymbolStore(path, projectKey string) (*SymbolStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("symbol store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("symbol store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbol store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open symbol store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping symbol store %q: %w", cleanPath, err)
	}

	if err := migrateSymbolSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	lookupStmt, err := db.Prepare(`SELECT
  source, name, def_type, line, col, end_line, end_col, keyword_ref, resolvable
FROM definitions
WHERE project_key = ? AND normalized_name = ?
ORDER BY source, line, col`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare lookup stmt: %w", err)
	}

	return &SymbolStore{
		db:          db,
		projectKey:  key,
		lookupStmt:  lookupStmt,
		lookupCache: make(map[string][]DefinitionRecord),
	}, nil
}

// migrateSymbolSchema creates or migrates the store to schema v1.
func migrateSymbolSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version < 1 {
		if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS definitions (
  project_key TEXT NOT NULL,
  source TEXT NOT NULL,
  name TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  def_type TEXT NOT NULL,
  line INTEGER NOT NULL,
  col INTEGER NOT NULL,
  end_line INTEGER NOT NULL,
  end_col INTEGER NOT NULL,
  keyword_ref TEXT NOT NULL DEFAULT '',
  resolvable INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_definitions_project_normalized ON definitions(project_key, normalized_name);
CREATE INDEX IF NOT EXISTS idx_definitions_project_source ON definitions(project_key, source);

CREATE TABLE IF NOT EXISTS imports (
  project_key TEXT NOT NULL,
  source TEXT NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  args TEXT NOT NULL DEFAULT '',
  alias TEXT NOT NULL DEFAULT '',
  line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_project_source ON imports(project_key, source);

PRAGMA user_version = 1;
`); err != nil {
			return fmt.Errorf("migrate symbol schema: %w", err)
		}
	}
	return nil
}

func (s *SymbolStore) clearCache() {
	if s == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.lookupCache = make(map[string][]DefinitionRecord)
}

// SyncNamespace replaces every persisted row of the namespace's document
// with the current pass in one transaction.
func (s *SymbolStore) SyncNamespace(ns *namespace.Namespace) error {
	if s == nil || s.db == nil || ns == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin namespace sync tx: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM definitions WHERE project_key = ? AND source = ?`, s.projectKey, ns.Source); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear definitions for %q: %w", ns.Source, err)
	}
	if _, err := tx.Exec(`DELETE FROM imports WHERE project_key = ? AND source = ?`, s.projectKey, ns.Source); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear imports for %q: %w", ns.Source, err)
	}

	for _, def := range ns.Definitions() {
		// Synthetic globals have no source location to persist.
		if def.Source != ns.Source {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO definitions
  (project_key, source, name, normalized_name, def_type, line, col, end_line, end_col, keyword_ref, resolvable)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.projectKey, def.Source, def.Name, normalizedLookupName(def.Name), def.Type.String(),
			def.LineNo, def.ColOffset, def.EndLineNo, def.EndColOffset,
			def.KeywordRef, boolToInt(def.Resolvable)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert definition %q: %w", def.Name, err)
		}
	}

	for _, imp := range ns.Imports() {
		key := imp.Key()
		if _, err := tx.Exec(`INSERT INTO imports
  (project_key, source, kind, name, args, alias, line)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.projectKey, ns.Source, key.Kind.String(), key.Name, key.Args, key.Alias,
			int(imp.Range().Start.Line)+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert import %q: %w", key.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit namespace sync tx: %w", err)
	}
	s.clearCache()
	return nil
}

// DeleteSource removes every row of a document, for file deletions.
func (s *SymbolStore) DeleteSource(source string) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin source delete tx: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM definitions WHERE project_key = ? AND source = ?`, s.projectKey, source); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete definitions for %q: %w", source, err)
	}
	if _, err := tx.Exec(`DELETE FROM imports WHERE project_key = ? AND source = ?`, s.projectKey, source); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete imports for %q: %w", source, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit source delete tx: %w", err)
	}
	s.clearCache()
	return nil
}

// DefinitionsByName returns every persisted definition matching the
// variable name, any sigil, case and spacing ignored.
func (s *SymbolStore) DefinitionsByName(name string) ([]DefinitionRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	normalized := normalizedLookupName(name)

	s.cacheMu.RLock()
	cached, ok := s.lookupCache[normalized]
	s.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	rows, err := s.lookupStmt.Query(s.projectKey, normalized)
	if err != nil {
		return nil, fmt.Errorf("query definitions for %q: %w", name, err)
	}
	defer rows.Close()

	var out []DefinitionRecord
	for rows.Next() {
		var rec DefinitionRecord
		var resolvable int
		if err := rows.Scan(&rec.Source, &rec.Name, &rec.Type, &rec.Line, &rec.Col,
			&rec.EndLine, &rec.EndCol, &rec.KeywordRef, &resolvable); err != nil {
			return nil, fmt.Errorf("scan definition row: %w", err)
		}
		rec.Resolvable = resolvable != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definition rows: %w", err)
	}

	s.cacheMu.Lock()
	s.lookupCache[normalized] = out
	s.cacheMu.Unlock()
	return out, nil
}

// ImportsBySource returns the persisted imports of one document in
// declaration order.
func (s *SymbolStore) ImportsBySource(source string) ([]ImportRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT source, kind, name, args, alias, line
FROM imports WHERE project_key = ? AND source = ? ORDER BY line`, s.projectKey, source)
	if err != nil {
		return nil, fmt.Errorf("query imports for %q: %w", source, err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.Source, &rec.Kind, &rec.Name, &rec.Args, &rec.Alias, &rec.Line); err != nil {
			return nil, fmt.Errorf("scan import row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SymbolStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookupStmt != nil {
		_ = s.lookupStmt.Close()
	}
	return s.db.Close()
}

func normalizedLookupName(name string) string {
	if m, err := symbols.ParseVariable(name); err == nil {
		return m.NormalizedName
	}
	return util.NormalizeName(name)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
