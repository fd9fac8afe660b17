// Package config loads the robot.toml project configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/weinmann-emt/robotcode/internal/shared/util"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Variables     Variables     `toml:"variables"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Analysis      Analysis      `toml:"analysis"`
	Store         Store         `toml:"store"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Paths struct {
	// Roots are the directories scanned for suite files.
	Roots    []string `toml:"roots"`
	StateDir string   `toml:"state_dir"`
}

type Variables struct {
	// Builtin extends the default builtin variable set.
	Builtin []string `toml:"builtin"`
	// CommandLine maps variable names to values, as robot --variable
	// would supply them. Bare names are accepted and wrapped in ${...}.
	CommandLine map[string]string `toml:"command_line"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Analysis struct {
	// Rate limits reanalysis per document, in passes per second.
	// Zero disables limiting.
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Store struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultBuiltinVariables lists the framework-provided names every
// namespace sees without configuration.
func DefaultBuiltinVariables() []string {
	return []string{
		"${CURDIR}",
		"${EXECDIR}",
		"${TEMPDIR}",
		"${/}",
		"${SPACE}",
		"${EMPTY}",
		"${SUITE NAME}",
		"${True}",
		"${False}",
		"${None}",
		"${null}",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no robot.toml exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Paths.Roots) == 0 {
		cfg.Paths.Roots = []string{"."}
	}
	if cfg.Paths.StateDir == "" {
		cfg.Paths.StateDir = ".robotcode"
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".robotcode", "node_modules", "__pycache__"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Analysis.Burst <= 0 {
		cfg.Analysis.Burst = 2
	}
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		cfg.Store.Path = cfg.Paths.StateDir + "/symbols.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Command line variable names may be given bare in TOML keys.
	if len(cfg.Variables.CommandLine) > 0 {
		normalized := make(map[string]string, len(cfg.Variables.CommandLine))
		for name, value := range cfg.Variables.CommandLine {
			normalized[wrapVariableName(name)] = value
		}
		cfg.Variables.CommandLine = normalized
	}
}

func wrapVariableName(name string) string {
	if strings.Contains(name, "{") {
		return name
	}
	return "${" + name + "}"
}

// BuiltinVariables merges the default set with configured extras.
func (c *Config) BuiltinVariables() []string {
	out := DefaultBuiltinVariables()
	for _, name := range c.Variables.Builtin {
		out = append(out, wrapVariableName(name))
	}
	return out
}

const starterConfig = `version = 1

[paths]
roots = ["."]
state_dir = ".robotcode"

# [variables.command_line]
# HOST = "localhost"

[exclude]
dirs = [".git", ".robotcode", "node_modules", "__pycache__"]

[watch]
enabled = true

[store]
enabled = false

[observability]
metrics_addr = ""

[log]
level = "info"
format = "text"
`

// WriteDefault writes a starter robot.toml, creating parent directories
// as needed.
func WriteDefault(path string) error {
	return util.WriteFileWithDirs(path, []byte(starterConfig), 0o644)
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	for _, root := range cfg.Paths.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("paths.roots must not contain empty entries")
		}
	}
	if cfg.Analysis.Rate < 0 {
		return fmt.Errorf("analysis.rate must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}
