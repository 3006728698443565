package mcts

// CycleStats is the tree snapshot handed to a Listener callback: the
// active root's visit count and its children's moves/counts at the time
// of the call.
type CycleStats[M comparable] struct {
	RootVisits int32
	Moves      []M
	Counts     []int32
}

// ListenerFunc is a plain callback receiving a tree snapshot.
type ListenerFunc[M comparable] func(CycleStats[M])

// Listener is an optional instrumentation hook: a host process wanting
// search diagnostics attaches callbacks here rather than this module
// exposing a CLI or log output of its own.
type Listener[M comparable] struct {
	onStop ListenerFunc[M]
}

// OnStop attaches a callback invoked once, by the calling goroutine,
// after a GetMoveCounts/GetMoveProbs call completes.
func (l *Listener[M]) OnStop(f ListenerFunc[M]) *Listener[M] {
	l.onStop = f
	return l
}
