// Package sagalog records every state transition of a saga as an append-only
// audit trail. Each entry carries the trace and span ids that were active when
// it was written, so a row can be joined with the distributed trace of the
// request that ran the saga.
package sagalog

import "time"

// Status represents the lifecycle state of a saga execution.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is a single row in the saga_logs table.
type SagaLog struct {
	SagaID string
	Status Status

	// CurrentStep is the name of the step that was just executed or failed.
	CurrentStep string

	// Payload is the JSON input of the saga, written on STARTED only.
	Payload string

	// ErrorMessages is a JSON array of failure details, one per failed step
	// or compensation.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
