package types

// ActionStatus tracks a detected action through its lifecycle.
//
// Transitions are one-way:
//
//	pending  -> approved  (user approval, optional)
//	pending  -> invalidated (enrichment time only)
//	pending|approved -> executing -> completed|failed
//
// completed, failed and invalidated are terminal; no edge re-enters pending.
type ActionStatus string

const (
	StatusPending     ActionStatus = "pending"
	StatusApproved    ActionStatus = "approved"
	StatusInvalidated ActionStatus = "invalidated"
	StatusExecuting   ActionStatus = "executing"
	StatusCompleted   ActionStatus = "completed"
	StatusFailed      ActionStatus = "failed"
)

func (s ActionStatus) String() string {
	return string(s)
}

// Executable reports whether an execute request may claim the record.
func (s ActionStatus) Executable() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether the record is immutable.
func (s ActionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusInvalidated
}
