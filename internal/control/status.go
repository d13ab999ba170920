package control

import (
	"encoding/json"
	"time"
)

// Status is the JSON object every stage publishes at least every
// publish period (spec §3, §4.9). Component-specific fields are merged
// in via Extra.
type Status struct {
	Module    string          `json:"module"`
	Timestamp string          `json:"timestamp"`
	MsgID     uint64          `json:"msg_ID"`
	Extra     json.RawMessage `json:"-"`
}

// statusEnvelope is the wire shape: Status's fixed fields plus Extra's
// keys flattened alongside them.
type statusEnvelope map[string]any

// MarshalJSON flattens Extra's fields alongside the fixed ones, so a
// status message is a single flat JSON object as spec §3 requires
// ("containing at minimum: module, timestamp, msg_ID, plus
// component-specific fields").
func (s Status) MarshalJSON() ([]byte, error) {
	env := statusEnvelope{
		"module":    s.Module,
		"timestamp": s.Timestamp,
		"msg_ID":    s.MsgID,
	}
	if len(s.Extra) > 0 {
		var extra map[string]any
		if err := json.Unmarshal(s.Extra, &extra); err != nil {
			return nil, err
		}
		for k, v := range extra {
			env[k] = v
		}
	}
	return json.Marshal(env)
}

// NewStatus builds a Status for module at the given msgID, with
// extraFields merged in as component-specific data.
func NewStatus(module string, msgID uint64, extraFields map[string]any) (Status, error) {
	var raw json.RawMessage
	if len(extraFields) > 0 {
		b, err := json.Marshal(extraFields)
		if err != nil {
			return Status{}, err
		}
		raw = b
	}
	return Status{
		Module:    module,
		Timestamp: time.Now().Format("2006-01-02T15:04:05.000-07:00"),
		MsgID:     msgID,
		Extra:     raw,
	}, nil
}

// ErrorEvent is the typed event every nontrivial error publishes on the
// events topic before any state change (spec §7).
type ErrorEvent struct {
	Type        string `json:"type"`
	Class       string `json:"class"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// NewErrorEvent builds an ErrorEvent for class/description, timestamped now.
func NewErrorEvent(class, description string) ErrorEvent {
	return ErrorEvent{
		Type:        "error",
		Class:       class,
		Description: description,
		Timestamp:   time.Now().Format("2006-01-02T15:04:05.000-07:00"),
	}
}
