package dashboard

import (
	"context"
	"fmt"
)

// Load fetches the task list. On failure the list stays empty and a
// retryable notice is recorded.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.api.GetTasks(ctx)
	if err != nil {
		b.tasks = nil
		b.fail(msgLoadFailed, err)
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	b.tasks = tasks
	return nil
}
