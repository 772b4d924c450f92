package engine

import "context"

// StartAutoEmbed starts the watcher: file-system subscriptions on every
// registered collection plus the self-rearming embedding scan loop.
func (e *Engine) StartAutoEmbed(ctx context.Context) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	return e.watch.Start(ctx)
}

// StopAutoEmbed stops the watcher. Idempotent.
func (e *Engine) StopAutoEmbed() {
	if e.watch != nil {
		e.watch.Stop()
	}
}
