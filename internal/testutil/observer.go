package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// RecordingObserver stores every notification in arrival order. It is safe
// for concurrent use.
type RecordingObserver struct {
	mu       sync.Mutex
	Actions  []core.Action
	Finishes []core.Finish
	Events   []string // "action:<tool>" / "finish"
}

// OnAction implements core.Observer.
func (o *RecordingObserver) OnAction(_ context.Context, action core.Action) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Actions = append(o.Actions, action)
	o.Events = append(o.Events, "action:"+action.Tool)
}

// OnFinish implements core.Observer.
func (o *RecordingObserver) OnFinish(_ context.Context, finish core.Finish) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Finishes = append(o.Finishes, finish)
	o.Events = append(o.Events, "finish")
}

// Snapshot returns a copy of the recorded events.
func (o *RecordingObserver) Snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.Events...)
}
