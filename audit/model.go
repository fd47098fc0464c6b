// api/audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Record kinds stored in the Action field besides plain HTTP verbs.
const (
	ActionPolicyCreated = "POLICY_CREATED"
	ActionPolicyUpdated = "POLICY_UPDATED"
	ActionPolicyDeleted = "POLICY_DELETED"
)

type AuditLog struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	Resource      string          `json:"resource"`
	TeamID        string          `json:"team_id,omitempty"`
	AccessGranted bool            `json:"access_granted"`
	PolicyID      string          `json:"policy_id,omitempty"`
	Reasons       []string        `json:"reasons,omitempty"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}

// LogQuery filters audit records. Empty UserID/Resource match everything.
type LogQuery struct {
	From     time.Time
	To       time.Time
	UserID   string
	Resource string
	Size     int
}
