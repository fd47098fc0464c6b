// api/dao/policy_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	taskhub_neo4j "github.com/dev-mohitbeniwal/taskhub/api/model/neo4j"
)

type PolicyDAO struct {
	Driver neo4j.DriverWithContext
}

func NewPolicyDAO(driver neo4j.DriverWithContext) *PolicyDAO {
	return &PolicyDAO{Driver: driver}
}

// EnsureUniqueConstraint ensures the unique constraint on the Policy ID and an
// index on the resource/action pair used at decision time.
func (dao *PolicyDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Policy ID")
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		statements := []string{
			`CREATE CONSTRAINT unique_policy_id IF NOT EXISTS FOR (p:` + taskhub_neo4j.LabelPolicy + `) REQUIRE p.id IS UNIQUE`,
			`CREATE INDEX policy_resource_action IF NOT EXISTS FOR (p:` + taskhub_neo4j.LabelPolicy + `) ON (p.resource, p.action)`,
		}
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, fmt.Errorf("failed to create schema: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Policy ID", zap.Error(err))
		return err
	}

	logger.Info("Successfully ensured unique constraint on Policy ID")
	return nil
}

// CreatePolicy stores a new policy, assigning an id when none is set.
func (dao *PolicyDAO) CreatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error) {
	start := time.Now()
	logger.Info("Creating new policy", zap.String("policyName", policy.Name))

	if policy.ID == "" {
		policy.ID = model.ID(uuid.New().String())
	}
	now := time.Now().UTC().Truncate(time.Second)
	policy.CreatedAt = now
	policy.UpdatedAt = now
	policy.Version = 1

	props, err := taskhub_neo4j.PolicyProps(policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidPolicyData, err)
	}

	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		check, err := tx.Run(ctx, `MATCH (p:`+taskhub_neo4j.LabelPolicy+` {id: $id}) RETURN p.id`,
			map[string]interface{}{"id": string(policy.ID)})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		if check.Next(ctx) {
			return nil, taskhub_errors.ErrPolicyConflict
		}

		_, err = tx.Run(ctx, `CREATE (p:`+taskhub_neo4j.LabelPolicy+` {id: $id}) SET p += $props`,
			map[string]interface{}{"id": string(policy.ID), "props": props})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create policy",
			zap.Error(err),
			zap.String("policyName", policy.Name),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Policy created successfully",
		zap.String("policyID", string(policy.ID)),
		zap.Duration("duration", duration))
	return &policy, nil
}

// UpdatePolicy replaces the mutable fields of an existing policy and bumps its version.
func (dao *PolicyDAO) UpdatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error) {
	start := time.Now()
	logger.Info("Updating policy", zap.String("policyID", string(policy.ID)))

	policy.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	props, err := taskhub_neo4j.PolicyProps(policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidPolicyData, err)
	}
	// identity and history are owned by the store
	delete(props, taskhub_neo4j.AttrCreatedAt)
	delete(props, taskhub_neo4j.AttrVersion)

	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		records, err := tx.Run(ctx, `
        MATCH (p:`+taskhub_neo4j.LabelPolicy+` {id: $id})
        SET p += $props, p.version = coalesce(p.version, 0) + 1
        RETURN p
        `, map[string]interface{}{"id": string(policy.ID), "props": props})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		if !records.Next(ctx) {
			return nil, taskhub_errors.ErrPolicyNotFound
		}
		return policyFromRecord(records.Record())
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update policy",
			zap.Error(err),
			zap.String("policyID", string(policy.ID)),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Policy updated successfully",
		zap.String("policyID", string(policy.ID)),
		zap.Duration("duration", duration))
	return result.(*model.Policy), nil
}

// DeletePolicy deletes a policy from Neo4j
func (dao *PolicyDAO) DeletePolicy(ctx context.Context, policyID model.ID) error {
	start := time.Now()
	logger.Info("Deleting policy", zap.String("policyID", string(policyID)))

	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `MATCH (p:`+taskhub_neo4j.LabelPolicy+` {id: $id}) DETACH DELETE p`,
			map[string]interface{}{"id": string(policyID)})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, taskhub_errors.ErrPolicyNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete policy",
			zap.Error(err),
			zap.String("policyID", string(policyID)),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy deleted successfully",
		zap.String("policyID", string(policyID)),
		zap.Duration("duration", duration))
	return nil
}

// GetPolicy retrieves a policy from Neo4j by its ID
func (dao *PolicyDAO) GetPolicy(ctx context.Context, policyID model.ID) (*model.Policy, error) {
	policies, err := dao.readPolicies(ctx, "get policy",
		`MATCH (p:`+taskhub_neo4j.LabelPolicy+` {id: $id}) RETURN p`,
		map[string]interface{}{"id": string(policyID)})
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		logger.Warn("Policy not found", zap.String("policyID", string(policyID)))
		return nil, taskhub_errors.ErrPolicyNotFound
	}
	return policies[0], nil
}

// ListPolicies retrieves policies newest first with pagination.
func (dao *PolicyDAO) ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	return dao.readPolicies(ctx, "list policies", `
    MATCH (p:`+taskhub_neo4j.LabelPolicy+`)
    RETURN p
    ORDER BY p.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `, map[string]interface{}{"limit": limit, "offset": offset})
}

// SearchPolicies matches name by substring and resource/action exactly.
func (dao *PolicyDAO) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("MATCH (p:" + taskhub_neo4j.LabelPolicy + ") WHERE 1=1")

	params := make(map[string]interface{})
	if criteria.Name != "" {
		queryBuilder.WriteString(" AND toLower(p.name) CONTAINS toLower($name)")
		params["name"] = criteria.Name
	}
	if criteria.Resource != "" {
		queryBuilder.WriteString(" AND p.resource = $resource")
		params["resource"] = criteria.Resource
	}
	if criteria.Action != "" {
		queryBuilder.WriteString(" AND p.action = $action")
		params["action"] = strings.ToUpper(criteria.Action)
	}
	queryBuilder.WriteString(" RETURN p ORDER BY p.createdAt DESC")
	if criteria.Limit > 0 {
		queryBuilder.WriteString(" LIMIT $limit")
		params["limit"] = criteria.Limit
	}

	return dao.readPolicies(ctx, "search policies", queryBuilder.String(), params)
}

func (dao *PolicyDAO) readPolicies(ctx context.Context, op, query string, params map[string]interface{}) ([]*model.Policy, error) {
	start := time.Now()
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer closeSession(ctx, session)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		policies := []*model.Policy{}
		for records.Next(ctx) {
			policy, err := policyFromRecord(records.Record())
			if err != nil {
				return nil, err
			}
			policies = append(policies, policy)
		}
		return policies, records.Err()
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to "+op,
			zap.Error(err),
			zap.Any("params", params),
			zap.Duration("duration", duration))
		return nil, err
	}

	policies := result.([]*model.Policy)
	logger.Debug("Policies read",
		zap.String("op", op),
		zap.Int("count", len(policies)),
		zap.Duration("duration", duration))
	return policies, nil
}

func policyFromRecord(record *neo4j.Record) (*model.Policy, error) {
	node, ok := record.Values[0].(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected policy record type %T", record.Values[0])
	}
	return taskhub_neo4j.PolicyFromProps(node.Props)
}

func closeSession(ctx context.Context, session neo4j.SessionWithContext) {
	if err := session.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Failed to close Neo4j session", zap.Error(err))
	}
}
