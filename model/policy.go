// api/model/policy.go
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ID is an opaque identifier for principals, teams and policies.
type ID string

// Policy binds one resource/action pair to a conjunction of conditions.
type Policy struct {
	ID          ID         `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Resource    string     `json:"resource" yaml:"resource"`
	Action      string     `json:"action" yaml:"action"`
	Conditions  Conditions `json:"conditions" yaml:"conditions"`
	Version     int        `json:"version" yaml:"-"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"-"`
}

// Conditions is the closed set of predicates a policy may carry. A zero field
// is an absent predicate. AllowedUsers is absent only when nil.
type Conditions struct {
	Role         string `json:"role,omitempty" yaml:"role,omitempty"`
	Department   string `json:"department,omitempty" yaml:"department,omitempty"`
	Time         bool   `json:"time,omitempty" yaml:"time,omitempty"`
	TeamAccess   bool   `json:"teamAccess,omitempty" yaml:"teamAccess,omitempty"`
	AllowedUsers []ID   `json:"allowedUsers" yaml:"allowedUsers"`
}

// UnmarshalJSON rejects condition names it does not know, so a misspelled
// predicate fails loudly instead of being skipped.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	type conditions Conditions
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var out conditions
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	*c = Conditions(out)
	return nil
}

// Count returns how many predicates are enabled.
func (c Conditions) Count() int {
	n := 0
	if c.Role != "" {
		n++
	}
	if c.Department != "" {
		n++
	}
	if c.Time {
		n++
	}
	if c.TeamAccess {
		n++
	}
	if c.AllowedUsers != nil {
		n++
	}
	return n
}

// Equal reports whether both sets enable the same predicates with the same values.
func (c Conditions) Equal(other Conditions) bool {
	return c.Role == other.Role &&
		c.Department == other.Department &&
		c.Time == other.Time &&
		c.TeamAccess == other.TeamAccess &&
		(c.AllowedUsers == nil) == (other.AllowedUsers == nil) &&
		slices.Equal(c.AllowedUsers, other.AllowedUsers)
}

type PolicySearchCriteria struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Limit    int    `json:"limit"`
}
