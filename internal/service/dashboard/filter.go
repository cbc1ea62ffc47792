package dashboard

import (
	"fmt"
	"strings"

	"taskboard/internal/model"

	"golang.org/x/text/cases"
)

// ParseFilter maps a query value to a filter, empty means all
func ParseFilter(s string) (model.Filter, error) {
	switch f := model.Filter(strings.TrimSpace(s)); f {
	case "":
		return model.FilterAll, nil
	case model.FilterAll, model.FilterCompleted, model.FilterPending, model.FilterInProgress:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown filter %q", ErrInvalidQuery, s)
}

// FilterTasks returns the tasks passing f in their original order.
// pending and in_progress use the same predicates as the statistics.
func FilterTasks(tasks []model.Task, f model.Filter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchFilter(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matchFilter(t model.Task, f model.Filter) bool {
	switch f {
	case model.FilterCompleted:
		return t.Completed
	case model.FilterPending:
		return isPending(t)
	case model.FilterInProgress:
		return isInProgress(t)
	}
	return true
}

// Search keeps tasks whose title or description contains term, ignoring case
func Search(tasks []model.Task, term string) []model.Task {
	term = strings.TrimSpace(term)
	if term == "" {
		return tasks
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := tasks[:0:0]
	for _, t := range tasks {
		if strings.Contains(fold.String(t.Title), needle) || strings.Contains(fold.String(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out
}
