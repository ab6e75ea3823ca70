// Package diagnostics dumps a Graphviz rendering of a stuck process's
// shadow stack and continuation chain when engine.Engine aborts with
// rerrors.ErrStuckLoop, using memviz to walk the live Go memory graph
// rather than hand-rolling a second stack-printing format alongside
// shadowstack.Stack.Trace's logger-based one.
package diagnostics

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
	"github.com/scanlime-collective/roboodyssey/shadowstack"
)

// StuckLoopSnapshot captures everything a stuck-loop post-mortem needs
// to graph: the process's shadow stack and its current/default
// continuation pair.
type StuckLoopSnapshot struct {
	Stack      *shadowstack.Stack
	Process    *sbtprocess.Process
	TotalCalls int
	StackDepth int
}

// Snapshot builds a StuckLoopSnapshot from a process at the moment a
// stuck loop was detected.
func Snapshot(p *sbtprocess.Process) StuckLoopSnapshot {
	return StuckLoopSnapshot{
		Stack:      &p.Stack,
		Process:    p,
		TotalCalls: p.Stack.TotalCalls(),
		StackDepth: p.Stack.Depth(),
	}
}

// DumpGraph writes a Graphviz dot rendering of snap's memory graph to
// w, suitable for `dot -Tpng` or similar. memviz walks unexported
// fields directly, so this reflects shadowstack.Stack's actual tagged
// slots rather than requiring a parallel exported view.
func DumpGraph(w io.Writer, snap StuckLoopSnapshot) error {
	func() {
		defer func() {
			if r := recover(); r != nil {
				panic(rerrors.Errorf("diagnostics: memviz panicked rendering a stuck-loop graph: %v", r))
			}
		}()
		memviz.Map(w, &snap)
	}()
	return nil
}
