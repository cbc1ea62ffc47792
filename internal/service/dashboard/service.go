// Package dashboard holds the task list of one dashboard request: it loads
// tasks from the backend, applies mutations after the backend accepted
// them and records the notices shown to the user.
package dashboard

import (
	"log/slog"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

const (
	msgLoadFailed   = "Failed to load tasks. Please try again."
	msgCreateFailed = "Failed to create task. Please try again."
	msgUpdateFailed = "Failed to update task. Please try again."
	msgDeleteFailed = "Failed to delete task. Please try again."

	msgCreated = "Task created successfully!"
	msgUpdated = "Task updated successfully!"
	msgDeleted = "Task deleted successfully!"
)

type Board struct {
	api    service.TaskAPI
	user   *model.User
	logger *slog.Logger

	tasks   []model.Task
	notices []model.Notice
}

func NewBoard(api service.TaskAPI, user *model.User, logger *slog.Logger) service.DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		api:    api,
		user:   user,
		logger: logger,
	}
}

// View returns the tasks selected by q together with statistics over the
// whole list. Stats are recomputed on every call.
func (b *Board) View(q model.ViewQuery) model.DashboardView {
	if q.Filter == "" {
		q.Filter = model.FilterAll
	}
	if q.Sort == "" {
		q.Sort = model.SortCreatedDesc
	}

	tasks := Search(FilterTasks(b.tasks, q.Filter), q.Search)
	SortTasks(tasks, q.Sort)

	notices := make([]model.Notice, len(b.notices))
	copy(notices, b.notices)

	return model.DashboardView{
		User:    b.user,
		Tasks:   tasks,
		Stats:   ComputeStats(b.tasks),
		Query:   q,
		Notices: notices,
	}
}

func (b *Board) fail(message string, err error) {
	b.logger.Warn(message, "error", err)
	b.notices = append(b.notices, model.Notice{
		Level:     model.NoticeError,
		Message:   message,
		Retryable: true,
	})
}

func (b *Board) succeed(message string) {
	b.notices = append(b.notices, model.Notice{
		Level:   model.NoticeSuccess,
		Message: message,
	})
}

func (b *Board) replace(task model.Task) {
	for i := range b.tasks {
		if b.tasks[i].ID == task.ID {
			b.tasks[i] = task
			return
		}
	}
	b.tasks = append(b.tasks, task)
}
