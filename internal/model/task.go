package model

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	Status      TaskStatus   // empty when the backend does not track it
	Priority    TaskPriority // empty when unset
	DueDate     string       // YYYY-MM-DD, empty when unset
	Tags        []string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput - fields of a new task. Completed nil means "derive from status".
type TaskInput struct {
	Title       string
	Description string
	Completed   *bool
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     string
	Tags        []string
}

// TaskPatch - partial update, nil fields are left untouched
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *string
	Tags        []string
}
