package types

// ExecutionResult is the outcome of running a single action against the
// outside world. Executor failures are values, not errors: a missing
// integration or a broker rejection lands here and is recorded in the ledger.
type ExecutionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
