package application

import "context"

// TriggerPayload carries the optional inputs a trigger adapter extracted from
// its event. A zero value runs the pipeline with configured defaults.
type TriggerPayload struct {
	// Owner overrides the configured GitHub login when non-empty.
	Owner string
	// Source names the adapter for logs, e.g. "cron" or "webhook:discussion".
	Source string
}

// Trigger is implemented by anything that can start one pipeline run.
// Cron, webhook and chat adapters depend on this interface only.
type Trigger interface {
	Invoke(ctx context.Context, payload *TriggerPayload) error
}

// TriggerFunc adapts a function to the Trigger interface.
type TriggerFunc func(ctx context.Context, payload *TriggerPayload) error

// Invoke calls f.
func (f TriggerFunc) Invoke(ctx context.Context, payload *TriggerPayload) error {
	return f(ctx, payload)
}
