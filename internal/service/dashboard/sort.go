package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"taskboard/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func ParseSort(s string) (model.SortOrder, error) {
	switch o := model.SortOrder(strings.TrimSpace(s)); o {
	case "":
		return model.SortCreatedDesc, nil
	case model.SortCreatedDesc, model.SortCreatedAsc, model.SortTitleAZ, model.SortTitleZA:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, s)
}

// SortTasks orders tasks in place. Titles are compared with English
// collation; ties keep their order.
func SortTasks(tasks []model.Task, order model.SortOrder) {
	switch order {
	case model.SortCreatedAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		})
	case model.SortTitleAZ, model.SortTitleZA:
		col := collate.New(language.English)
		desc := order == model.SortTitleZA
		sort.SliceStable(tasks, func(i, j int) bool {
			c := col.CompareString(tasks[i].Title, tasks[j].Title)
			if desc {
				return c > 0
			}
			return c < 0
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}
