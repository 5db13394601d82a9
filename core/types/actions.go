package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ActionType is the closed set of actions the pipeline knows how to execute.
type ActionType string

const (
	ActionTypeCalendarEvent ActionType = "calendar_event"
	ActionTypeTaskCreate    ActionType = "task_create"
	ActionTypeEmailReply    ActionType = "email_reply"
	ActionTypeReminder      ActionType = "reminder"
)

var KnownActionTypes = []ActionType{
	ActionTypeCalendarEvent,
	ActionTypeTaskCreate,
	ActionTypeEmailReply,
	ActionTypeReminder,
}

func (t ActionType) String() string {
	return string(t)
}

// Known reports whether t is one of the action types the dispatcher can
// execute. An unknown type is still persisted by the ingress gate; it fails
// at execution time with a normal (non-error) result.
func (t ActionType) Known() bool {
	for _, k := range KnownActionTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ActionPayload is the action-type specific execution payload. Its shape is
// produced by the enrichment engine and consumed by the matching executor.
type ActionPayload map[string]interface{}

func (p ActionPayload) String() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// Unmarshal decodes the payload into a typed struct.
func (p ActionPayload) Unmarshal(v interface{}) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Params returns the nested "params" object, or an empty map when absent.
func (p ActionPayload) Params() ActionPayload {
	raw, ok := p["params"]
	if !ok {
		return ActionPayload{}
	}
	if m, ok := raw.(map[string]interface{}); ok {
		return ActionPayload(m)
	}
	return ActionPayload{}
}

func (p ActionPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ActionPayload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into ActionPayload", value)
	}
}
