package app

import "time"

// Operation describes the CLI command an app was opened for. Its ID tags
// every log line written during the command.
type Operation struct {
	ID        string
	Name      string
	Status    string // "success" or "error"
	StartedAt time.Time
}

// NewOperation starts an operation at now, identified by its UTC timestamp.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        now.UTC().Format("20060102T150405Z"),
		Name:      name,
		Status:    "success",
		StartedAt: now,
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed reports whether any step of the operation failed.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
