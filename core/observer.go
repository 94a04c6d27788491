package core

import "context"

// Observer receives lifecycle notifications from an executor. Notifications
// are best-effort: an observer cannot alter or abort the loop.
//
// Observers are called sequentially within one call. An observer shared by
// concurrently running calls must be safe for concurrent use.
type Observer interface {
	// OnAction is invoked after the agent chose an action and before the
	// tool is dispatched.
	OnAction(ctx context.Context, action Action)

	// OnFinish is invoked with the final decision when intermediate steps
	// are not returned to the caller.
	OnFinish(ctx context.Context, finish Finish)
}
