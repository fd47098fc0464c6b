package taskhub_neo4j

import (
	"fmt"
	"time"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// UserProps flattens a user into node properties. Teams live on MEMBER_OF edges.
func UserProps(user model.User) map[string]interface{} {
	return map[string]interface{}{
		AttrName:       user.Name,
		AttrEmail:      user.Email,
		AttrRole:       user.Role,
		AttrDepartment: user.Department,
		AttrCreatedAt:  user.CreatedAt.UTC().Format(time.RFC3339),
		AttrUpdatedAt:  user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// UserFromProps rebuilds a user from node properties and its team ids.
func UserFromProps(props map[string]interface{}, teams []interface{}) (*model.User, error) {
	id, ok := props[AttrID].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("failed to assert type for user ID: %v", props[AttrID])
	}
	user := &model.User{ID: model.ID(id), Teams: []model.ID{}}
	user.Name, _ = props[AttrName].(string)
	user.Email, _ = props[AttrEmail].(string)
	user.Role, _ = props[AttrRole].(string)
	user.Department, _ = props[AttrDepartment].(string)
	if createdAt, ok := props[AttrCreatedAt].(string); ok {
		user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	}
	if updatedAt, ok := props[AttrUpdatedAt].(string); ok {
		user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	}

	for _, t := range teams {
		team, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("failed to assert type for team ID: %v", t)
		}
		if team != "" {
			user.Teams = append(user.Teams, model.ID(team))
		}
	}
	return user, nil
}
