package features

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/core/errors"
	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/shared/observability"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// ReferencesService answers find-all-references queries. Results are
// cached per analysis pass; cache keys embed the pass IDs of every
// namespace consulted, so a reanalysis can never serve stale locations.
type ReferencesService struct {
	cache *ristretto.Cache[string, []protocol.Location]
}

func NewReferencesService() (*ReferencesService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []protocol.Location]{
		NumCounters: 1 << 14,
		MaxCost:     1 << 22,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create references cache")
	}
	return &ReferencesService{cache: cache}, nil
}

func (s *ReferencesService) Close() {
	s.cache.Close()
}

// FindReferences locates every usage of the variable under pos. Local
// variables and keyword arguments are searched only in their own
// document; every other definition type is searched across all
// namespaces the provider yields.
func (s *ReferencesService) FindReferences(p NamespaceProvider, ns *namespace.Namespace, pos protocol.Position, includeDeclaration bool) []protocol.Location {
	def, ok := ns.DefinitionAt(pos)
	if !ok {
		if def, ok = definitionUnder(ns, pos); !ok {
			return nil
		}
	}

	targets := []*namespace.Namespace{ns}
	if p != nil && !isDocumentLocal(def.Type) {
		targets = p.Namespaces()
	}

	key := cacheKey(def, targets, includeDeclaration)
	if locs, ok := s.cache.Get(key); ok {
		observability.ReferenceCacheHits.Inc()
		return locs
	}
	observability.ReferenceCacheMisses.Inc()

	locs := collectReferences(def, targets, includeDeclaration)
	s.cache.Set(key, locs, int64(1+len(locs)))
	s.cache.Wait()
	return locs
}

func isDocumentLocal(t symbols.VariableDefinitionType) bool {
	return t == symbols.TypeLocalVariable || t == symbols.TypeArgument
}

func cacheKey(def *symbols.VariableDefinition, targets []*namespace.Namespace, includeDeclaration bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v|%t", def.Key(), includeDeclaration)
	for _, t := range targets {
		sb.WriteByte('|')
		sb.WriteString(t.PassID)
	}
	return sb.String()
}

func collectReferences(def *symbols.VariableDefinition, targets []*namespace.Namespace, includeDeclaration bool) []protocol.Location {
	var locs []protocol.Location
	key := def.Key()
	for _, target := range targets {
		local, ok := target.DefinitionByKey(key)
		if !ok {
			continue
		}
		if includeDeclaration {
			locs = append(locs, definitionLocations(local)...)
		}
		uri := URIForPath(target.Source)
		for _, rng := range target.References(local) {
			locs = append(locs, protocol.Location{URI: uri, Range: rng})
		}
	}
	return locs
}
