// api/util/validation_util.go

package util

import (
	"fmt"
	"strings"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

var validActions = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidatePolicy normalizes policy in place (trimmed resource, upper-case
// action) and reports the first rule it breaks.
func (v *ValidationUtil) ValidatePolicy(policy *model.Policy) error {
	policy.Name = strings.TrimSpace(policy.Name)
	policy.Resource = strings.TrimSpace(policy.Resource)
	policy.Action = strings.ToUpper(strings.TrimSpace(policy.Action))

	if policy.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	if policy.Resource == "" {
		return fmt.Errorf("policy resource cannot be empty")
	}
	if !strings.HasPrefix(policy.Resource, "/") {
		return fmt.Errorf("policy resource %q must start with '/'", policy.Resource)
	}
	if !validActions[policy.Action] {
		return fmt.Errorf("policy action %q must be one of GET, POST, PUT, DELETE", policy.Action)
	}
	if policy.Conditions.AllowedUsers != nil && len(policy.Conditions.AllowedUsers) == 0 {
		return fmt.Errorf("allowedUsers must name at least one user when present")
	}
	for _, id := range policy.Conditions.AllowedUsers {
		if strings.TrimSpace(string(id)) == "" {
			return fmt.Errorf("allowedUsers cannot contain an empty id")
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if user.Name == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	for _, team := range user.Teams {
		if team == "" {
			return fmt.Errorf("user %s has an empty team id", user.ID)
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateSearchCriteria(criteria model.PolicySearchCriteria) error {
	if criteria.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if criteria.Action != "" && !validActions[strings.ToUpper(criteria.Action)] {
		return fmt.Errorf("unknown action %q", criteria.Action)
	}
	return nil
}
