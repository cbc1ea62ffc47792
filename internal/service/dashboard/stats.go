package dashboard

import "taskboard/internal/model"

// ComputeStats counts tasks per state. CompletionRate is the rounded
// percentage of completed tasks, halves round up, 0 for an empty list.
func ComputeStats(tasks []model.Task) model.Stats {
	var st model.Stats
	st.Total = len(tasks)

	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
		if isPending(t) {
			st.Pending++
		}
		if isInProgress(t) {
			st.InProgress++
		}
	}

	if st.Total > 0 {
		st.CompletionRate = (st.Completed*200 + st.Total) / (2 * st.Total)
	}
	return st
}

func isPending(t model.Task) bool {
	return !t.Completed && t.Status != model.StatusInProgress
}

func isInProgress(t model.Task) bool {
	return t.Status == model.StatusInProgress
}
