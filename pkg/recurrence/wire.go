package recurrence

import "time"

// Wire is the document encoding of a Rule. It is embedded into the JSON form
// of tasks and commitments so the stored document keeps its flat shape:
//
//	{"recurrenceType":"weekly","isRecurring":true,"recurrenceDay":1}
type Wire struct {
	RecurrenceType Kind `json:"recurrenceType"`
	IsRecurring    bool `json:"isRecurring"`
	RecurrenceDay  *int `json:"recurrenceDay,omitempty"`
}

// ToWire encodes r.
func (r Rule) ToWire() Wire {
	w := Wire{RecurrenceType: r.Kind()}
	if day, ok := r.Day(); ok {
		d := int(day)
		w.IsRecurring = true
		w.RecurrenceDay = &d
	}
	return w
}

// Rule decodes w. Inconsistent documents are normalised rather than
// rejected: a weekly item without a usable day becomes None, and a day on a
// non-weekly item is dropped. Legacy documents that only set isRecurring are
// read as weekly when a day is present.
func (w Wire) Rule() Rule {
	kind := w.RecurrenceType
	if kind == "" && w.IsRecurring {
		kind = KindWeekly
	}
	switch kind {
	case KindWeekly:
		if w.RecurrenceDay == nil || *w.RecurrenceDay < 0 || *w.RecurrenceDay > 6 {
			return None()
		}
		return Weekly(time.Weekday(*w.RecurrenceDay))
	case KindDaily:
		return Daily()
	default:
		return None()
	}
}
