package planner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"

	"tableflip.dev/studyplan/pkg/datekey"
)

// NormalizeColor validates a hex colour ("#abc" or "#aabbcc") and returns it
// as lowercase #rrggbb.
func NormalizeColor(hex string) (string, error) {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("planner: invalid color %q", hex)
	}
	return c.Hex(), nil
}

// Subject returns the subject called name.
func (s State) Subject(name string) (Subject, bool) {
	for _, sub := range s.Subjects {
		if sub.Name == name {
			return sub, true
		}
	}
	return Subject{}, false
}

// AddSubject adds a subject or, when name exists, updates its colour. Blank
// names and invalid colours are ignored.
func (s State) AddSubject(name, color string) State {
	name = strings.TrimSpace(name)
	c, err := NormalizeColor(color)
	if name == "" || err != nil {
		return s
	}
	out := s.Clone()
	for i := range out.Subjects {
		if out.Subjects[i].Name == name {
			out.Subjects[i].Color = c
			return out
		}
	}
	out.Subjects = append(out.Subjects, Subject{Name: name, Color: c})
	return out
}

// RemoveSubject deletes the subject. Tasks keep their subject name.
func (s State) RemoveSubject(name string) State {
	for i, sub := range s.Subjects {
		if sub.Name == name {
			out := s.Clone()
			out.Subjects = append(out.Subjects[:i], out.Subjects[i+1:]...)
			return out
		}
	}
	return s
}

// Progress returns the progress record with id.
func (s State) Progress(id string) (SubjectProgress, bool) {
	for _, p := range s.SubjectProgress {
		if p.ID == id {
			return p.clone(), true
		}
	}
	return SubjectProgress{}, false
}

// AddProgress starts tracking a subject. The status defaults to in progress.
func (s State) AddProgress(p SubjectProgress) State {
	p.SubjectName = strings.TrimSpace(p.SubjectName)
	if p.SubjectName == "" || !p.StartDate.Valid() {
		return s
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !p.Status.Valid() {
		p.Status = StatusInProgress
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	out := s.Clone()
	out.SubjectProgress = append(out.SubjectProgress, p.clone())
	return out
}

// SetProgressStatus changes the status of a record. Completing it stamps the
// end date when none is set; resuming clears it.
func (s State) SetProgressStatus(id string, status ProgressStatus, on datekey.Key) State {
	if !status.Valid() {
		return s
	}
	return s.editProgress(id, func(p *SubjectProgress) {
		p.Status = status
		switch status {
		case StatusCompleted:
			if p.EndDate == nil && on.Valid() {
				end := on
				p.EndDate = &end
			}
		case StatusInProgress:
			p.EndDate = nil
		}
	})
}

// SetProgressNotes replaces the notes of a record.
func (s State) SetProgressNotes(id, notes string) State {
	return s.editProgress(id, func(p *SubjectProgress) { p.Notes = notes })
}

// AddTopic appends a studied topic to a record. Duplicates are ignored.
func (s State) AddTopic(id, topic string) State {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return s
	}
	if p, ok := s.Progress(id); ok {
		for _, t := range p.Topics {
			if t == topic {
				return s
			}
		}
	}
	return s.editProgress(id, func(p *SubjectProgress) { p.Topics = append(p.Topics, topic) })
}

// RemoveProgress deletes a record.
func (s State) RemoveProgress(id string) State {
	for i, p := range s.SubjectProgress {
		if p.ID == id {
			out := s.Clone()
			out.SubjectProgress = append(out.SubjectProgress[:i], out.SubjectProgress[i+1:]...)
			return out
		}
	}
	return s
}

func (s State) editProgress(id string, fn func(*SubjectProgress)) State {
	for i, p := range s.SubjectProgress {
		if p.ID == id {
			out := s.Clone()
			fn(&out.SubjectProgress[i])
			return out
		}
	}
	return s
}

// SetGoal sets the daily study goal in minutes. Non-positive goals are ignored.
func (s State) SetGoal(minutes int) State {
	if minutes <= 0 {
		return s
	}
	out := s.Clone()
	out.GlobalDailyGoal = minutes
	return out
}

// SetNotes replaces the general notes.
func (s State) SetNotes(notes string) State {
	out := s.Clone()
	out.GeneralNotes = notes
	return out
}

// SetUserName replaces the display name.
func (s State) SetUserName(name string) State {
	out := s.Clone()
	out.UserName = strings.TrimSpace(name)
	return out
}
