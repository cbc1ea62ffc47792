package model

type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterPending    Filter = "pending"
	FilterInProgress Filter = "in_progress"
)

type SortOrder string

const (
	SortCreatedDesc SortOrder = "created_desc"
	SortCreatedAsc  SortOrder = "created_asc"
	SortTitleAZ     SortOrder = "title_az"
	SortTitleZA     SortOrder = "title_za"
)

type Stats struct {
	Total          int
	Completed      int
	Pending        int
	InProgress     int
	CompletionRate int // percent, 0 when there are no tasks
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice - transient notification shown on the dashboard
type Notice struct {
	Level     NoticeLevel
	Message   string
	Retryable bool
}

// ViewQuery - user controlled filtering of the task list
type ViewQuery struct {
	Filter Filter
	Sort   SortOrder
	Search string
}

type DashboardView struct {
	User    *User
	Tasks   []Task
	Stats   Stats
	Query   ViewQuery
	Notices []Notice
}
