package features

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/namespace"
)

// Completions offers every variable visible at pos as a completion item,
// shadowed names excluded, sorted by label.
func Completions(ns *namespace.Namespace, pos protocol.Position) []protocol.CompletionItem {
	blockKey := ""
	if block, ok := ns.Doc.BlockAt(pos); ok {
		blockKey = namespace.BlockKey(block)
	}

	kind := protocol.CompletionItemKindVariable
	var items []protocol.CompletionItem
	for _, def := range ns.VisibleDefinitions(blockKey) {
		items = append(items, protocol.CompletionItem{
			Label:  def.Name,
			Kind:   &kind,
			Detail: strPtr(def.Type.String()),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}
