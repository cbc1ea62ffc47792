package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskboard/internal/model"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
	dueDateLayout     = "2006-01-02"
)

var (
	// ErrInvalidTask - task input rejected before reaching the backend
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidQuery - unknown filter or sort value
	ErrInvalidQuery = errors.New("invalid query")
)

func normalizeInput(in model.TaskInput) model.TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	return in
}

func normalizePatch(p model.TaskPatch) model.TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	if p.DueDate != nil {
		due := strings.TrimSpace(*p.DueDate)
		p.DueDate = &due
	}
	return p
}

func validateInput(in model.TaskInput) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, in.Status)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, in.Priority)
	}
	return validateDueDate(in.DueDate)
}

func validatePatch(p model.TaskPatch) error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *p.Priority)
	}
	if p.DueDate != nil {
		return validateDueDate(*p.DueDate)
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidTask, maxTitleLen)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidTask, maxDescriptionLen)
	}
	return nil
}

func validateDueDate(due string) error {
	if due == "" {
		return nil
	}
	if _, err := time.Parse(dueDateLayout, due); err != nil {
		return fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalidTask)
	}
	return nil
}
