package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"taskboard/internal/model"
)

var errBackend = errors.New("API request failed: 500 Internal Server Error")

// fakeTaskAPI keeps tasks in memory; err, when set, fails every call
type fakeTaskAPI struct {
	tasks   []model.Task
	err     error
	created []model.TaskInput
	patches []model.TaskPatch
	calls   int
}

func (f *fakeTaskAPI) GetTasks(context.Context) ([]model.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeTaskAPI) CreateTask(_ context.Context, in model.TaskInput) (model.Task, error) {
	f.calls++
	f.created = append(f.created, in)
	if f.err != nil {
		return model.Task{}, f.err
	}
	t := model.Task{ID: "new", Title: in.Title, Description: in.Description, Status: in.Status}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return t, nil
}

func (f *fakeTaskAPI) UpdateTask(_ context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	f.calls++
	f.patches = append(f.patches, patch)
	if f.err != nil {
		return model.Task{}, f.err
	}
	t := model.Task{ID: id, Title: "updated"}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	return t, nil
}

func (f *fakeTaskAPI) DeleteTask(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *fakeTaskAPI) ToggleTaskCompletion(_ context.Context, id string) (model.Task, error) {
	f.calls++
	if f.err != nil {
		return model.Task{}, f.err
	}
	for _, t := range f.tasks {
		if t.ID == id {
			t.Completed = !t.Completed
			return t, nil
		}
	}
	return model.Task{}, errBackend
}

func newTestBoard(api *fakeTaskAPI) *Board {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBoard(api, &model.User{ID: "u1"}, logger).(*Board)
}

func loadedBoard(t *testing.T, api *fakeTaskAPI) *Board {
	t.Helper()
	b := newTestBoard(api)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return b
}

func threeTasks() []model.Task {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Task{
		{ID: "1", Title: "banana", Completed: true, CreatedAt: base},
		{ID: "2", Title: "Apple", Description: "Red fruit", Status: model.StatusInProgress, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "cherry", Status: model.StatusPending, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoad_Failure(t *testing.T) {
	b := newTestBoard(&fakeTaskAPI{err: errBackend})

	err := b.Load(context.Background())
	if !errors.Is(err, errBackend) {
		t.Fatalf("Load() error = %v", err)
	}

	v := b.View(model.ViewQuery{})
	if len(v.Tasks) != 0 {
		t.Errorf("expected empty list, got %v", v.Tasks)
	}
	if len(v.Notices) != 1 || v.Notices[0].Message != msgLoadFailed || !v.Notices[0].Retryable {
		t.Errorf("unexpected notices %+v", v.Notices)
	}
}

func TestView_DefaultsAndStats(t *testing.T) {
	b := loadedBoard(t, &fakeTaskAPI{tasks: threeTasks()})

	v := b.View(model.ViewQuery{})
	if v.Query.Filter != model.FilterAll || v.Query.Sort != model.SortCreatedDesc {
		t.Errorf("unexpected defaults %+v", v.Query)
	}
	if got := ids(v.Tasks); !equalIDs(got, []string{"3", "2", "1"}) {
		t.Errorf("default order = %v", got)
	}
	want := model.Stats{Total: 3, Completed: 1, Pending: 1, InProgress: 1, CompletionRate: 33}
	if v.Stats != want {
		t.Errorf("Stats = %+v, want %+v", v.Stats, want)
	}
	if v.User == nil || v.User.ID != "u1" {
		t.Errorf("User = %+v", v.User)
	}
}

func TestView_StatsCoverWholeList(t *testing.T) {
	b := loadedBoard(t, &fakeTaskAPI{tasks: threeTasks()})

	v := b.View(model.ViewQuery{Filter: model.FilterCompleted, Search: "zzz"})
	if len(v.Tasks) != 0 {
		t.Errorf("expected no tasks, got %v", ids(v.Tasks))
	}
	if v.Stats.Total != 3 {
		t.Errorf("stats should not depend on the query: %+v", v.Stats)
	}
}

func TestCreate_TitleOnlyIsNotCompleted(t *testing.T) {
	api := &fakeTaskAPI{}
	b := loadedBoard(t, api)

	task, err := b.Create(context.Background(), model.TaskInput{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if task.Completed {
		t.Error("title-only task should not be completed")
	}
	sent := api.created[0]
	if sent.Title != "Buy milk" || sent.Completed == nil || *sent.Completed {
		t.Errorf("unexpected request %+v", sent)
	}

	v := b.View(model.ViewQuery{})
	if len(v.Tasks) != 1 || v.Stats.Total != 1 {
		t.Errorf("task not added: %+v", v)
	}
	if v.Notices[0].Level != model.NoticeSuccess || v.Notices[0].Message != msgCreated {
		t.Errorf("unexpected notice %+v", v.Notices[0])
	}
}

func TestCreate_CompletedFollowsStatusUnlessExplicit(t *testing.T) {
	no := false

	tests := []struct {
		name string
		in   model.TaskInput
		want bool
	}{
		{name: "status completed", in: model.TaskInput{Title: "a", Status: model.StatusCompleted}, want: true},
		{name: "status pending", in: model.TaskInput{Title: "a", Status: model.StatusPending}, want: false},
		{name: "explicit override", in: model.TaskInput{Title: "a", Status: model.StatusCompleted, Completed: &no}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := loadedBoard(t, &fakeTaskAPI{})
			task, err := b.Create(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if task.Completed != tt.want {
				t.Errorf("Completed = %v, want %v", task.Completed, tt.want)
			}
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	long := make([]rune, maxTitleLen+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name string
		in   model.TaskInput
	}{
		{name: "blank title", in: model.TaskInput{Title: "   "}},
		{name: "long title", in: model.TaskInput{Title: string(long)}},
		{name: "bad status", in: model.TaskInput{Title: "a", Status: "done"}},
		{name: "bad priority", in: model.TaskInput{Title: "a", Priority: "urgent"}},
		{name: "bad due date", in: model.TaskInput{Title: "a", DueDate: "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeTaskAPI{}
			b := newTestBoard(api)
			_, err := b.Create(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidTask) {
				t.Errorf("error = %v, want ErrInvalidTask", err)
			}
			if api.calls != 0 {
				t.Error("invalid input reached the backend")
			}
		})
	}
}

func TestMutationFailures_LeaveListUnchanged(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(b *Board) error{
		"create": func(b *Board) error {
			_, err := b.Create(ctx, model.TaskInput{Title: "x"})
			return err
		},
		"update": func(b *Board) error {
			title := "x"
			_, err := b.Update(ctx, "1", model.TaskPatch{Title: &title})
			return err
		},
		"delete": func(b *Board) error {
			return b.Delete(ctx, "1")
		},
		"toggle": func(b *Board) error {
			_, err := b.ToggleComplete(ctx, "1")
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			api := &fakeTaskAPI{tasks: threeTasks()}
			b := loadedBoard(t, api)
			before := b.View(model.ViewQuery{})

			api.err = errBackend
			if err := op(b); !errors.Is(err, errBackend) {
				t.Fatalf("error = %v, want backend error", err)
			}

			after := b.View(model.ViewQuery{})
			if !equalIDs(ids(before.Tasks), ids(after.Tasks)) || after.Stats != before.Stats {
				t.Errorf("list changed after failure: %v -> %v", ids(before.Tasks), ids(after.Tasks))
			}
			n := after.Notices[len(after.Notices)-1]
			if n.Level != model.NoticeError || !n.Retryable {
				t.Errorf("expected retryable error notice, got %+v", n)
			}
		})
	}
}

func TestUpdate_StatusSetsCompleted(t *testing.T) {
	api := &fakeTaskAPI{tasks: threeTasks()}
	b := loadedBoard(t, api)

	status := model.StatusCompleted
	task, err := b.Update(context.Background(), "3", model.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !task.Completed || api.patches[0].Completed == nil || !*api.patches[0].Completed {
		t.Errorf("completed should follow status, patch %+v", api.patches[0])
	}

	v := b.View(model.ViewQuery{Filter: model.FilterCompleted})
	if !equalIDs(ids(v.Tasks), []string{"1", "3"}) && !equalIDs(ids(v.Tasks), []string{"3", "1"}) {
		t.Errorf("completed tasks = %v", ids(v.Tasks))
	}
}

func TestToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	api := &fakeTaskAPI{tasks: threeTasks()}
	b := loadedBoard(t, api)

	task, err := b.ToggleComplete(ctx, "3")
	if err != nil || !task.Completed {
		t.Fatalf("ToggleComplete() = %+v, %v", task, err)
	}
	if got := b.View(model.ViewQuery{}).Stats.Completed; got != 2 {
		t.Errorf("Completed = %d after toggle", got)
	}

	if err = b.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	v := b.View(model.ViewQuery{Sort: model.SortCreatedAsc})
	if !equalIDs(ids(v.Tasks), []string{"2", "3"}) {
		t.Errorf("tasks after delete = %v", ids(v.Tasks))
	}
	if last := v.Notices[len(v.Notices)-1]; last.Message != msgDeleted {
		t.Errorf("last notice = %+v", last)
	}
}
