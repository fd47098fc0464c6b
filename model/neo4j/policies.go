// api/model/neo4j/policies.go
package taskhub_neo4j

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// PolicyProps flattens a policy into node properties. Conditions are stored as
// a JSON string since node properties cannot hold maps.
func PolicyProps(policy model.Policy) (map[string]interface{}, error) {
	conditionsJSON, err := json.Marshal(policy.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy conditions: %w", err)
	}

	return map[string]interface{}{
		AttrName:        policy.Name,
		AttrDescription: policy.Description,
		AttrResource:    policy.Resource,
		AttrAction:      policy.Action,
		AttrConditions:  string(conditionsJSON),
		AttrVersion:     policy.Version,
		AttrCreatedAt:   policy.CreatedAt.UTC().Format(time.RFC3339),
		AttrUpdatedAt:   policy.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// PolicyFromProps rebuilds a policy from node properties. Malformed required
// properties are errors so a corrupt node never evaluates as a permissive policy.
func PolicyFromProps(props map[string]interface{}) (*model.Policy, error) {
	policy := &model.Policy{}

	id, ok := props[AttrID].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("failed to assert type for policy ID: %v", props[AttrID])
	}
	policy.ID = model.ID(id)

	if policy.Resource, ok = props[AttrResource].(string); !ok {
		return nil, fmt.Errorf("failed to assert type for policy resource: %v", props[AttrResource])
	}
	if policy.Action, ok = props[AttrAction].(string); !ok {
		return nil, fmt.Errorf("failed to assert type for policy action: %v", props[AttrAction])
	}

	conditionsJSON, ok := props[AttrConditions].(string)
	if !ok {
		return nil, fmt.Errorf("failed to assert type for policy conditions: %v", props[AttrConditions])
	}
	if err := json.Unmarshal([]byte(conditionsJSON), &policy.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy conditions: %w", err)
	}

	policy.Name, _ = props[AttrName].(string)
	policy.Description, _ = props[AttrDescription].(string)
	if version, ok := props[AttrVersion].(int64); ok {
		policy.Version = int(version)
	}
	if createdAt, ok := props[AttrCreatedAt].(string); ok {
		policy.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	}
	if updatedAt, ok := props[AttrUpdatedAt].(string); ok {
		policy.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	}

	return policy, nil
}
