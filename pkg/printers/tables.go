package printers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/remote"
	"tableflip.dev/studyplan/pkg/syncer"
	"tableflip.dev/studyplan/pkg/timeutil"
)

const dateTime = "2006-01-02 15:04"

func (pp *PrettyPrint) table() *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = uint(pp.width() / 2)
	t.Wrap = true
	return t
}

func (pp *PrettyPrint) flush(t *uitable.Table) {
	_, _ = fmt.Fprintln(pp.Out, t)
	pp.NewLine()
}

func header(cols ...interface{}) []interface{} {
	h := color.New(color.Faint)
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = h.Sprint(c)
	}
	return out
}

// SortSubjects orders subjects by name using the collation of the user's
// language, so accented names sort next to their base letter.
func SortSubjects(subjects []planner.Subject) []planner.Subject {
	out := append([]planner.Subject(nil), subjects...)
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Subjects lists the subjects with a swatch of their colour.
func (pp *PrettyPrint) Subjects(st planner.State) {
	pp.TitleWithCount("Subjects", len(st.Subjects), "subject")
	if len(st.Subjects) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	for _, s := range SortSubjects(st.Subjects) {
		t.AddRow(pp.swatch(st, s.Name), s.Name, s.Color)
	}
	pp.flush(t)
}

// Progress lists subject progress records.
func (pp *PrettyPrint) Progress(st planner.State) {
	pp.TitleWithCount("Progress", len(st.SubjectProgress), "record")
	if len(st.SubjectProgress) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("ID", "SUBJECT", "STATUS", "STARTED", "ENDED", "TOPICS")...)
	for _, p := range st.SubjectProgress {
		ended := "-"
		if p.EndDate != nil {
			ended = p.EndDate.String()
		}
		t.AddRow(short(p.ID), p.SubjectName, string(p.Status), p.StartDate.String(), ended, strings.Join(p.Topics, ", "))
	}
	pp.flush(t)
}

// Recurring lists the weekly rules.
func (pp *PrettyPrint) Recurring(st planner.State) {
	pp.TitleWithCount("Weekly rules", len(st.RecurringTasks)+len(st.RecurringCommitments), "rule")
	if len(st.RecurringTasks)+len(st.RecurringCommitments) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("ID", "KIND", "DAY", "TIME", "TEXT", "SUBJECT", "DONE")...)
	for _, r := range st.RecurringTasks {
		day, _ := r.Recurrence.Day()
		t.AddRow(short(r.ID), "task", day, "", r.Text, r.Subject, r.Completed)
	}
	for _, r := range st.RecurringCommitments {
		day, _ := r.Recurrence.Day()
		t.AddRow(short(r.ID), "commitment", day, r.Time, r.Text, r.Subject, "")
	}
	pp.flush(t)
}

// Report prints a per-day summary and the subject breakdown.
func (pp *PrettyPrint) Report(r insights.ReportResult, label string) {
	pp.Title(fmt.Sprintf("Report · last %s (%s → %s)", label, r.From, r.To))
	if len(r.Days) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("DATE", "MINUTES", "TASKS")...)
	for _, d := range r.Days {
		t.AddRow(d.Date, timeutil.FormatMinutes(d.Minutes), fmt.Sprintf("%d/%d", d.Completed, d.Tasks))
	}
	t.AddRow("total", timeutil.FormatMinutes(r.Minutes), fmt.Sprintf("streak %d", r.Streak))
	pp.flush(t)

	if len(r.Subjects) == 0 {
		return
	}
	pp.Title("By subject")
	t = pp.table()
	t.AddRow(header("SUBJECT", "DONE", "TOTAL")...)
	for _, s := range r.Subjects {
		name := s.Subject
		if name == "" {
			name = "(none)"
		}
		t.AddRow(name, s.Completed, s.Total)
	}
	pp.flush(t)
}

// Migration lists open tasks left on past days.
func (pp *PrettyPrint) Migration(cands []app.MigrationCandidate, label string) {
	pp.TitleWithCount("Migration candidates · last "+label, len(cands), "task")
	if len(cands) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("DAY", "ID", "TASK", "SUBJECT")...)
	for _, c := range cands {
		t.AddRow(c.Day, short(c.Task.ID), c.Task.Text, c.Task.Subject)
	}
	pp.flush(t)
}

// SyncStatus prints the sync coordinator state.
func (pp *PrettyPrint) SyncStatus(s syncer.Status) {
	t := pp.table()
	t.AddRow("state:", s.StateName)
	t.AddRow("user:", s.UserID)
	last := "never"
	if !s.LastSyncedAt.IsZero() {
		last = s.LastSyncedAt.Local().Format(dateTime)
	}
	t.AddRow("last synced:", last)
	t.AddRow("pending push:", s.Pending)
	if s.LastError != "" {
		t.AddRow("last error:", color.New(color.FgRed).Sprint(s.LastError))
	}
	pp.flush(t)
}

// Groups lists study groups.
func (pp *PrettyPrint) Groups(groups []remote.Group, userID string) {
	pp.TitleWithCount("Groups", len(groups), "group")
	if len(groups) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("ID", "NAME", "INVITE", "ROLE", "DESCRIPTION")...)
	for _, g := range groups {
		role := remote.RoleMember
		if g.OwnerID == userID {
			role = remote.RoleOwner
		}
		t.AddRow(g.ID, g.Name, g.InviteCode, role, g.Description)
	}
	pp.flush(t)
}

// Members lists the members of a group.
func (pp *PrettyPrint) Members(members []remote.Member) {
	pp.TitleWithCount("Members", len(members), "member")
	t := pp.table()
	for _, m := range members {
		t.AddRow(m.UserID, m.Role, m.JoinedAt.Local().Format(dateTime))
	}
	pp.flush(t)
}

// Activities lists the topic posts of a group.
func (pp *PrettyPrint) Activities(list []remote.Activity) {
	pp.TitleWithCount("Activities", len(list), "activity")
	if len(list) == 0 {
		pp.none()
		return
	}
	for _, a := range list {
		pp.id(a.ID)
		_, _ = color.New(color.Bold).Fprint(pp.Out, a.Title)
		_, _ = color.New(color.Faint).Fprintf(pp.Out, "  %s\n", a.CreatedAt.Local().Format(dateTime))
		if body := strings.TrimSpace(a.Body); body != "" {
			pp.wrapped(body)
		}
	}
	pp.NewLine()
}

// Files lists the attachments of a group.
func (pp *PrettyPrint) Files(files []remote.File) {
	pp.TitleWithCount("Files", len(files), "file")
	if len(files) == 0 {
		pp.none()
		return
	}
	t := pp.table()
	t.AddRow(header("ID", "NAME", "SIZE", "UPLOADED", "URL")...)
	for _, f := range files {
		t.AddRow(f.ID, f.Name, size(f.Size), f.CreatedAt.Local().Format(dateTime), f.URL)
	}
	pp.flush(t)
}

func short(id string) string {
	if len(id) > idWidth {
		return id[:idWidth]
	}
	return id
}

func size(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
