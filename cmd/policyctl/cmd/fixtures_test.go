package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

const sampleFixtures = `
users:
  - id: u1
    name: Ada
    role: pm
    department: eng
    teams: [T1, T2]
  - id: u2
    name: Bob
    role: worker
policies:
  - id: pm-create-task
    name: PMs create tasks
    resource: /tasks
    action: post
    conditions:
      role: pm
  - id: team-projects
    name: Team members see projects
    resource: /teams/:teamId/projects
    action: GET
    conditions:
      teamAccess: true
  - id: office-hours
    name: Workers update during office hours
    resource: /tasks/:id
    action: PUT
    conditions:
      role: worker
      time: true
`

func writeFixtures(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFixtures(t *testing.T) {
	fx, err := LoadFixtures(writeFixtures(t, sampleFixtures))
	require.NoError(t, err)

	require.Len(t, fx.Users, 2)
	require.Len(t, fx.Policies, 3)
	assert.Equal(t, []model.ID{"T1", "T2"}, fx.Users[0].Teams)
	assert.NotNil(t, fx.Users[1].Teams)
	assert.Equal(t, "POST", fx.Policies[0].Action)
	assert.True(t, fx.Policies[1].Conditions.TeamAccess)
	assert.Nil(t, fx.Policies[0].Conditions.AllowedUsers)

	u, ok := fx.User("u2")
	assert.True(t, ok)
	assert.Equal(t, "worker", u.Role)
	_, ok = fx.User("nobody")
	assert.False(t, ok)
}

func TestDecodeFixtures_RejectsUnknownConditionKey(t *testing.T) {
	_, err := DecodeFixtures(strings.NewReader(`
policies:
  - id: p
    name: typo
    resource: /tasks
    action: GET
    conditions:
      rol: pm
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rol")
}

func TestDecodeFixtures_RejectsInvalidPolicy(t *testing.T) {
	_, err := DecodeFixtures(strings.NewReader(`
policies:
  - id: p
    name: nobody
    resource: /tasks
    action: GET
    conditions:
      allowedUsers: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowedUsers")
}

func TestDecodeFixtures_Empty(t *testing.T) {
	fx, err := DecodeFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Policies)
}
