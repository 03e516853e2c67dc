package driven

import "context"

// Notifier defines the driven port for delivering a text message to a chat
// channel. Each call is independent; callers do not retry.
type Notifier interface {
	Send(ctx context.Context, workspace, channel, text string) error
}
