package service

import (
	"context"
	"errors"

	"taskboard/internal/model"
)

var (
	// ErrSessionUnavailable - the identity backend could not be asked about the session
	ErrSessionUnavailable = errors.New("session service unavailable")
	// ErrSessionSuperseded - a sign-in or sign-out of the same browser
	// committed while the refresh was in flight, the refresh result was dropped
	ErrSessionSuperseded = errors.New("session changed during refresh")
)

// AuthGateway - identity backend as seen by the auth store and the proxy routes
type AuthGateway interface {
	Forward(ctx context.Context, method, path string, body []byte, cookie string) (*model.Reply, error)
	SignIn(ctx context.Context, creds model.Credentials) (*model.Reply, error)
	SignUp(ctx context.Context, creds model.Credentials) (*model.Reply, error)
	Session(ctx context.Context, cookie string) (*model.Reply, error)
	SignOut(ctx context.Context, cookie string) (*model.Reply, error)
}

// TokenSource - bearer token of the current session
type TokenSource interface {
	AccessToken() string
}

// AuthStore - auth state of one browser client
type AuthStore interface {
	State() model.AuthSnapshot
	Tokens() TokenSource
	RefreshSession(ctx context.Context) error
	// SignIn and SignUp return the Set-Cookie lines to relay to the browser
	SignIn(ctx context.Context, email, password string) ([]string, error)
	SignUp(ctx context.Context, email, password, name string) ([]string, error)
	// SignOut returns the backend's Set-Cookie lines, if it could be reached
	SignOut(ctx context.Context) []string
}

type AuthStoreFactory interface {
	NewStore(client model.BrowserClient) AuthStore
}

// TaskAPI - task backend operations
type TaskAPI interface {
	GetTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ToggleTaskCompletion(ctx context.Context, id string) (model.Task, error)
}

// TaskAPIFactory builds a task client bound to a session's token
type TaskAPIFactory interface {
	NewTaskAPI(tokens TokenSource) TaskAPI
}

// DashboardService - task list of one request with its notices
type DashboardService interface {
	Load(ctx context.Context) error
	Create(ctx context.Context, in model.TaskInput) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	ToggleComplete(ctx context.Context, id string) (model.Task, error)
	View(q model.ViewQuery) model.DashboardView
}
