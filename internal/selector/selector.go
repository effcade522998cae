// Package selector classifies SQL statements as transactional or analytical.
//
// Classification is a string-predicate heuristic, not a parser: false
// negatives simply route an analytical query to the transactional engine
// where it runs unaccelerated. That is a deliberate trade-off against
// pulling in a full SQL grammar.
package selector

import (
	"strings"

	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// OLAPHint is the inline comment that forces a statement onto the
// analytical engine.
const OLAPHint = "/*+ engine=olap */"

// analyticalMarkers are matched space-padded against the whitespace-collapsed
// statement so partial words (e.g. "covered") never match.
var analyticalMarkers = []string{
	" group by ",
	" window ",
	" over ",
	" rollup ",
	" cube ",
}

// Choose decides which engine a statement should run against.
// It is pure and total; it never fails.
//
// Decision order, first match wins:
//  1. preferOLAP forces the analytical engine.
//  2. The inline hint comment forces the analytical engine.
//  3. Any analytical marker routes to the analytical engine.
//  4. Everything else runs transactionally.
func Choose(sqlText string, preferOLAP bool) core.EngineKind {
	if preferOLAP {
		return core.EngineOLAP
	}

	lower := strings.ToLower(sqlText)
	if strings.Contains(lower, OLAPHint) {
		return core.EngineOLAP
	}

	framed := " " + strings.Join(strings.Fields(lower), " ") + " "
	for _, marker := range analyticalMarkers {
		if strings.Contains(framed, marker) {
			return core.EngineOLAP
		}
	}

	return core.EngineOLTP
}
