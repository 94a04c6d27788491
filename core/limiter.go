package core

// Unbounded disables the iteration budget.
const Unbounded = -1

// IterationBudget tracks the number of completed loop iterations against an
// optional maximum. It is owned by a single call and is not safe for
// concurrent use.
type IterationBudget struct {
	max   int
	count int
}

// NewIterationBudget creates a budget allowing max iterations.
// A negative max (see Unbounded) allows an unlimited number of iterations.
func NewIterationBudget(max int) *IterationBudget {
	return &IterationBudget{max: max}
}

// Continue reports whether another iteration may start.
func (b *IterationBudget) Continue() bool {
	return b.max < 0 || b.count < b.max
}

// Increment records a completed iteration.
func (b *IterationBudget) Increment() { b.count++ }

// Count returns the number of completed iterations.
func (b *IterationBudget) Count() int { return b.count }

// Remaining returns how many iterations are left, or -1 when unbounded.
func (b *IterationBudget) Remaining() int {
	if b.max < 0 {
		return -1
	}
	return b.max - b.count
}
