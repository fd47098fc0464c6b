package taskhub_neo4j_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	taskhub_neo4j "github.com/dev-mohitbeniwal/taskhub/api/model/neo4j"
)

func TestUserFromProps(t *testing.T) {
	created := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	user := model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: "pm", Department: "IT", CreatedAt: created, UpdatedAt: created}

	props := taskhub_neo4j.UserProps(user)
	props[taskhub_neo4j.AttrID] = "u1"

	got, err := taskhub_neo4j.UserFromProps(props, []interface{}{"T1", "T2"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("u1"), got.ID)
	assert.Equal(t, "pm", got.Role)
	assert.Equal(t, "IT", got.Department)
	assert.Equal(t, []model.ID{"T1", "T2"}, got.Teams)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestUserFromProps_NoTeamsIsEmptySet(t *testing.T) {
	got, err := taskhub_neo4j.UserFromProps(map[string]interface{}{"id": "u2", "role": "worker"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got.Teams)
	assert.Empty(t, got.Teams)
}

func TestUserFromProps_Errors(t *testing.T) {
	_, err := taskhub_neo4j.UserFromProps(map[string]interface{}{}, nil)
	assert.Error(t, err)

	_, err = taskhub_neo4j.UserFromProps(map[string]interface{}{"id": "u1"}, []interface{}{42})
	assert.Error(t, err)
}
