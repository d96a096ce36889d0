package commands

import (
	"fmt"
	"strings"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/recurrence"
)

// match returns the single id in ids starting with prefix.
func match(kind, prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%s id required", kind)
	}
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s matches %q", kind, prefix)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%q matches %d %ss, use more of the id", prefix, len(found), kind)
}

func findTask(st planner.State, day datekey.Key, prefix string) (planner.TaskView, error) {
	views := st.EffectiveTasks(day)
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	id, err := match("task", prefix, ids)
	if err != nil {
		return planner.TaskView{}, err
	}
	for _, v := range views {
		if v.ID == id {
			return v, nil
		}
	}
	return planner.TaskView{}, fmt.Errorf("no task matches %q", prefix)
}

func findCommitment(st planner.State, day datekey.Key, prefix string) (planner.CommitmentView, error) {
	views := st.EffectiveCommitments(day)
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	id, err := match("commitment", prefix, ids)
	if err != nil {
		return planner.CommitmentView{}, err
	}
	for _, v := range views {
		if v.ID == id {
			return v, nil
		}
	}
	return planner.CommitmentView{}, fmt.Errorf("no commitment matches %q", prefix)
}

func findRule(st planner.State, prefix string) (string, error) {
	var ids []string
	for _, t := range st.RecurringTasks {
		ids = append(ids, t.ID)
	}
	for _, c := range st.RecurringCommitments {
		ids = append(ids, c.ID)
	}
	return match("rule", prefix, ids)
}

func findProgress(st planner.State, prefix string) (string, error) {
	ids := make([]string, len(st.SubjectProgress))
	for i, p := range st.SubjectProgress {
		ids[i] = p.ID
	}
	return match("progress record", prefix, ids)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// added describes where a new item will show up.
func added(day datekey.Key, rule recurrence.Rule) string {
	switch {
	case rule.IsDaily():
		return fmt.Sprintf(" on %s and %d more days this month", day, len(planner.PropagationDates(day)))
	case rule.IsWeekly():
		wd, _ := rule.Day()
		return fmt.Sprintf(" every %s", wd)
	}
	return " on " + day.String()
}
