package converter

import (
	dto "taskboard/internal/api/dto/task"
	"taskboard/internal/model"
)

func ToTaskModel(t dto.Task) model.Task {
	task := model.Task{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Status:    model.TaskStatus(t.Status),
		Priority:  model.TaskPriority(t.Priority),
		Tags:      t.Tags,
		OwnerID:   t.OwnerID,
		CreatedAt: parseTimestamp(t.CreatedAt),
		UpdatedAt: parseTimestamp(t.UpdatedAt),
	}
	if t.Description != nil {
		task.Description = *t.Description
	}
	if t.DueDate != nil {
		task.DueDate = *t.DueDate
	}
	return task
}

func ToTaskModels(tasks []dto.Task) []model.Task {
	result := make([]model.Task, len(tasks))
	for i, t := range tasks {
		result[i] = ToTaskModel(t)
	}
	return result
}

func ToTaskDTO(t model.Task) dto.Task {
	task := dto.Task{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Tags:      t.Tags,
		OwnerID:   t.OwnerID,
		CreatedAt: formatTimestamp(t.CreatedAt),
		UpdatedAt: formatTimestamp(t.UpdatedAt),
	}
	if t.Description != "" {
		task.Description = &t.Description
	}
	if t.DueDate != "" {
		task.DueDate = &t.DueDate
	}
	return task
}

func ToCreateTaskRequest(in model.TaskInput) dto.CreateTaskRequest {
	return dto.CreateTaskRequest{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		Status:      string(in.Status),
		Priority:    string(in.Priority),
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	}
}

func CreateTaskRequestToInput(r dto.CreateTaskRequest) model.TaskInput {
	return model.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Status:      model.TaskStatus(r.Status),
		Priority:    model.TaskPriority(r.Priority),
		DueDate:     r.DueDate,
		Tags:        r.Tags,
	}
}

func ToUpdateTaskRequest(p model.TaskPatch) dto.UpdateTaskRequest {
	r := dto.UpdateTaskRequest{
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		DueDate:     p.DueDate,
		Tags:        p.Tags,
	}
	if p.Status != nil {
		s := string(*p.Status)
		r.Status = &s
	}
	if p.Priority != nil {
		pr := string(*p.Priority)
		r.Priority = &pr
	}
	return r
}

func UpdateTaskRequestToPatch(r dto.UpdateTaskRequest) model.TaskPatch {
	p := model.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		s := model.TaskStatus(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := model.TaskPriority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

func ToViewResponse(v model.DashboardView) dto.ViewResponse {
	tasks := make([]dto.Task, len(v.Tasks))
	for i, t := range v.Tasks {
		tasks[i] = ToTaskDTO(t)
	}

	notices := make([]dto.Notice, len(v.Notices))
	for i, n := range v.Notices {
		notices[i] = dto.Notice{
			Level:     string(n.Level),
			Message:   n.Message,
			Retryable: n.Retryable,
		}
	}

	var user *dto.User
	if v.User != nil {
		user = &dto.User{
			ID:    v.User.ID,
			Email: v.User.Email,
			Name:  v.User.Name,
		}
	}

	return dto.ViewResponse{
		User:  user,
		Tasks: tasks,
		Stats: dto.Stats{
			Total:          v.Stats.Total,
			Completed:      v.Stats.Completed,
			Pending:        v.Stats.Pending,
			InProgress:     v.Stats.InProgress,
			CompletionRate: v.Stats.CompletionRate,
		},
		Filter:  string(v.Query.Filter),
		Sort:    string(v.Query.Sort),
		Search:  v.Query.Search,
		Notices: notices,
	}
}
