package sagalog

import "context"

// Repository persists saga log entries. Each Save appends a row.
type Repository interface {
	Save(ctx context.Context, entry *SagaLog) error
}
