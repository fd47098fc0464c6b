package taskhub_neo4j_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	taskhub_neo4j "github.com/dev-mohitbeniwal/taskhub/api/model/neo4j"
)

func TestPolicyPropsRoundTrip(t *testing.T) {
	created := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	policy := model.Policy{
		ID:       "p1",
		Name:     "pm creates tasks",
		Resource: "/tasks",
		Action:   "POST",
		Conditions: model.Conditions{
			Role:         "pm",
			TeamAccess:   true,
			AllowedUsers: []model.ID{},
		},
		Version:   3,
		CreatedAt: created,
		UpdatedAt: created,
	}

	props, err := taskhub_neo4j.PolicyProps(policy)
	require.NoError(t, err)
	// the driver hands back integers as int64
	props[taskhub_neo4j.AttrID] = "p1"
	props[taskhub_neo4j.AttrVersion] = int64(3)

	got, err := taskhub_neo4j.PolicyFromProps(props)
	require.NoError(t, err)
	assert.Equal(t, policy.ID, got.ID)
	assert.Equal(t, "/tasks", got.Resource)
	assert.Equal(t, "POST", got.Action)
	assert.True(t, policy.Conditions.Equal(got.Conditions))
	assert.Equal(t, 3, got.Version)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestPolicyFromProps_RejectsMalformedNodes(t *testing.T) {
	base := func() map[string]interface{} {
		return map[string]interface{}{
			taskhub_neo4j.AttrID:         "p1",
			taskhub_neo4j.AttrResource:   "/tasks",
			taskhub_neo4j.AttrAction:     "GET",
			taskhub_neo4j.AttrConditions: `{}`,
		}
	}

	_, err := taskhub_neo4j.PolicyFromProps(base())
	require.NoError(t, err)

	missingResource := base()
	delete(missingResource, taskhub_neo4j.AttrResource)
	_, err = taskhub_neo4j.PolicyFromProps(missingResource)
	assert.Error(t, err)

	badConditions := base()
	badConditions[taskhub_neo4j.AttrConditions] = `{"roles":"pm"}`
	_, err = taskhub_neo4j.PolicyFromProps(badConditions)
	assert.Error(t, err)

	noID := base()
	noID[taskhub_neo4j.AttrID] = 42
	_, err = taskhub_neo4j.PolicyFromProps(noID)
	assert.Error(t, err)
}
