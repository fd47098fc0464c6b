package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

func TestConditions_UnmarshalRejectsUnknownPredicate(t *testing.T) {
	var p model.Policy
	err := json.Unmarshal([]byte(`{"resource":"/tasks","action":"POST","conditions":{"rol":"pm"}}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rol")
}

func TestConditions_AllowedUsersPresence(t *testing.T) {
	var absent, empty model.Policy
	require.NoError(t, json.Unmarshal([]byte(`{"conditions":{}}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"conditions":{"allowedUsers":[]}}`), &empty))

	assert.Nil(t, absent.Conditions.AllowedUsers)
	assert.NotNil(t, empty.Conditions.AllowedUsers)
	assert.Equal(t, 0, absent.Conditions.Count())
	assert.Equal(t, 1, empty.Conditions.Count())

	// the distinction survives a JSON round trip
	data, err := json.Marshal(empty.Conditions)
	require.NoError(t, err)
	var back model.Conditions
	require.NoError(t, json.Unmarshal(data, &back))
	assert.NotNil(t, back.AllowedUsers)
}

func TestConditions_Equal(t *testing.T) {
	a := model.Conditions{Role: "pm", AllowedUsers: []model.ID{"u1"}}
	b := model.Conditions{Role: "pm", AllowedUsers: []model.ID{"u1"}}
	assert.True(t, a.Equal(b))

	b.AllowedUsers = nil
	assert.False(t, a.Equal(b))
	assert.False(t, model.Conditions{AllowedUsers: []model.ID{}}.Equal(model.Conditions{}))
}

func TestPrincipal_InTeam(t *testing.T) {
	p := model.User{ID: "u1", Teams: []model.ID{"T1", "T2"}}.Principal()
	assert.True(t, p.InTeam("T1"))
	assert.False(t, p.InTeam("T3"))
	assert.False(t, p.InTeam(""))

	none := model.User{ID: "u2", Teams: []model.ID{}}.Principal()
	assert.False(t, none.InTeam("T1"))
}
