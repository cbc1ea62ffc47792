package dashboard

import (
	"context"
	"fmt"
)

func (b *Board) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: task id is required", ErrInvalidTask)
	}

	if err := b.api.DeleteTask(ctx, id); err != nil {
		b.fail(msgDeleteFailed, err)
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	kept := b.tasks[:0]
	for _, t := range b.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	b.tasks = kept
	b.succeed(msgDeleted)
	return nil
}
