package repo

import (
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionCancel     Action = "CANCEL"
	ActionActivate   Action = "ACTIVATE"
	ActionDeactivate Action = "DEACTIVATE"
)

// HistoryEntry is one element of an entity's modification_history column.
// The column is only ever appended to.
type HistoryEntry struct {
	Action    Action    `json:"action"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Fields    []string  `json:"fields,omitempty"`
}

func NewEntry(action Action, actor string, at time.Time, fields ...string) HistoryEntry {
	return HistoryEntry{Action: action, Actor: actor, Timestamp: at.UTC(), Fields: fields}
}

// appendArg encodes entries for a `modification_history || $n::jsonb` append.
func appendArg(entries ...HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return b, nil
}

func decodeHistory(raw []byte) ([]HistoryEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []HistoryEntry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}

// TimeOfDay is minutes since midnight, rendered as "HH:MM".
type TimeOfDay int

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseTimeOfDay accepts "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	tm, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return TimeOfDay(tm.Hour()*60 + tm.Minute()), nil
}
