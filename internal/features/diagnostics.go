package features

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/namespace"
)

const diagnosticSource = "robotcode"

// Diagnostics reports one error per unresolved variable reference,
// positioned exactly at the usage span.
func Diagnostics(ns *namespace.Namespace) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	var out []protocol.Diagnostic
	for _, def := range ns.Unresolved() {
		out = append(out, protocol.Diagnostic{
			Range:    def.NameRange(),
			Severity: &severity,
			Source:   strPtr(diagnosticSource),
			Message:  fmt.Sprintf("Variable '%s' not found.", def.Name),
		})
	}
	return out
}
