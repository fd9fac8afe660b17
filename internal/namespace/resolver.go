package namespace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/weinmann-emt/robotcode/internal/shared/observability"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// Resolve populates values for resolvable definitions: builtins from the
// document's own context, command line variables from their supplied
// values, environment variables from the process environment. The write is
// idempotent and monotonic, so running it again (or concurrently against
// the same deterministic sources) only repeats work.
func Resolve(ctx context.Context, ns *Namespace, opts Options) {
	_, span := observability.Tracer.Start(ctx, "namespace.Resolve")
	defer span.End()

	for _, def := range ns.definitions {
		if !def.Resolvable || def.HasValue {
			continue
		}
		switch def.Type {
		case symbols.TypeCommandLineVariable:
			if v, ok := opts.CommandLineVariables[def.Name]; ok {
				def.SetValue(v)
			}
		case symbols.TypeEnvironmentVariable:
			if v, ok := os.LookupEnv(environmentName(def.Name)); ok {
				def.SetValue(v)
			}
		case symbols.TypeBuiltinVariable:
			if v, ok := builtinValue(def.Name, ns); ok {
				def.SetValue(v)
			}
		}
	}
}

// environmentName extracts the process environment key from a `%{...}`
// reference, dropping any `=default` suffix.
func environmentName(ref string) string {
	m, err := symbols.ParseVariable(ref)
	if err != nil {
		return ref
	}
	name, _, _ := strings.Cut(m.Base, "=")
	return name
}

func builtinValue(name string, ns *Namespace) (interface{}, bool) {
	m, err := symbols.ParseVariable(name)
	if err != nil {
		return nil, false
	}
	switch m.NormalizedName {
	case "curdir":
		if ns.Source == "" {
			return nil, false
		}
		return filepath.Dir(ns.Source), true
	case "execdir":
		wd, err := os.Getwd()
		if err != nil {
			return nil, false
		}
		return wd, true
	case "tempdir":
		return os.TempDir(), true
	case "/":
		return string(os.PathSeparator), true
	case "suitename":
		if ns.Source == "" {
			return nil, false
		}
		base := filepath.Base(ns.Source)
		return strings.TrimSuffix(base, filepath.Ext(base)), true
	case "space":
		return " ", true
	case "empty":
		return "", true
	default:
		return nil, false
	}
}
