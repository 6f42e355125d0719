package notifier

import "context"

// Notifier delivers fund reports to operators.
type Notifier interface {
	Send(text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	StartPolling(ctx context.Context, handler CommandHandler)
}

// NoopNotifier drops every message. Used when no chat is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Send(_ string) error                                  { return nil }
func (n *NoopNotifier) SendWithRetry(_ context.Context, _ string, _ int) error { return nil }

// StartPolling blocks until ctx is cancelled.
func (n *NoopNotifier) StartPolling(ctx context.Context, _ CommandHandler) { <-ctx.Done() }
