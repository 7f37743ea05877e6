package interfaces

import "context"

// Notifier delivers out-of-band alerts (elevated-risk executions, cycle
// failures). Delivery failures are logged by callers, never fatal.
type Notifier interface {
	Alert(ctx context.Context, level, subject, body string) error
}
