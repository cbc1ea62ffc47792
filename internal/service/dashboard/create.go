package dashboard

import (
	"context"
	"fmt"

	"taskboard/internal/model"
)

// Create validates in and creates the task. Without an explicit completion
// flag the task is completed only when its status says so.
func (b *Board) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	in = normalizeInput(in)
	if err := validateInput(in); err != nil {
		return model.Task{}, err
	}

	if in.Completed == nil {
		completed := in.Status == model.StatusCompleted
		in.Completed = &completed
	}

	task, err := b.api.CreateTask(ctx, in)
	if err != nil {
		b.fail(msgCreateFailed, err)
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	b.tasks = append(b.tasks, task)
	b.succeed(msgCreated)
	return task, nil
}
