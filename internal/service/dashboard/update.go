package dashboard

import (
	"context"
	"fmt"

	"taskboard/internal/model"
)

// Update applies patch to task id. A status change without an explicit
// completion flag also sets the flag.
func (b *Board) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if id == "" {
		return model.Task{}, fmt.Errorf("%w: task id is required", ErrInvalidTask)
	}

	patch = normalizePatch(patch)
	if err := validatePatch(patch); err != nil {
		return model.Task{}, err
	}

	if patch.Completed == nil && patch.Status != nil {
		completed := *patch.Status == model.StatusCompleted
		patch.Completed = &completed
	}

	task, err := b.api.UpdateTask(ctx, id, patch)
	if err != nil {
		b.fail(msgUpdateFailed, err)
		return model.Task{}, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	b.replace(task)
	b.succeed(msgUpdated)
	return task, nil
}

// ToggleComplete flips the completion flag of task id
func (b *Board) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	if id == "" {
		return model.Task{}, fmt.Errorf("%w: task id is required", ErrInvalidTask)
	}

	task, err := b.api.ToggleTaskCompletion(ctx, id)
	if err != nil {
		b.fail(msgUpdateFailed, err)
		return model.Task{}, fmt.Errorf("failed to toggle task %s: %w", id, err)
	}

	b.replace(task)
	if task.Completed {
		b.succeed("Task marked as completed!")
	} else {
		b.succeed("Task marked as active!")
	}
	return task, nil
}
