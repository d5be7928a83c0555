package kb

import (
	"fmt"
	"strings"

	"github.com/c360studio/semkb/rdfgraph"
)

// Strategy selects how an accepted graph is folded into the accumulation.
type Strategy string

const (
	// StrategyReparent makes the accepted graph the new root and registers the
	// previous root as its sub-graph. Each load therefore deepens a chain
	// rooted at the newest document.
	StrategyReparent Strategy = "reparent"

	// StrategyMerge keeps a root derived from the previous one and registers
	// the accepted graph as a constituent, so the root's own content stays put
	// and the nesting depth stays at one.
	StrategyMerge Strategy = "merge"
)

// DefaultStrategy is the accumulation behaviour used when none is configured.
const DefaultStrategy = StrategyReparent

// ParseStrategy parses a strategy name. The empty string yields DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultStrategy, nil
	case StrategyReparent:
		return StrategyReparent, nil
	case StrategyMerge:
		return StrategyMerge, nil
	default:
		return "", fmt.Errorf("unknown accumulation strategy %q (want %s or %s)", s, StrategyReparent, StrategyMerge)
	}
}

// fold returns the accumulation root after accepting fresh on top of prev.
func (s Strategy) fold(prev, fresh *rdfgraph.Graph) (*rdfgraph.Graph, error) {
	switch s {
	case StrategyMerge:
		next := prev.Derive()
		if err := next.AddSubGraph(fresh); err != nil {
			return nil, err
		}
		return next, nil
	default:
		if err := fresh.AddSubGraph(prev); err != nil {
			return nil, err
		}
		return fresh, nil
	}
}
