package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	taskhub_neo4j "github.com/dev-mohitbeniwal/taskhub/api/model/neo4j"
)

// PolicyRetrievalDAO is the Neo4j-backed policy store used at decision time.
type PolicyRetrievalDAO struct {
	Driver neo4j.DriverWithContext
	// Timeout bounds a single lookup; zero means the caller's context decides.
	Timeout time.Duration
}

func NewPolicyRetrievalDAO(driver neo4j.DriverWithContext, timeout time.Duration) *PolicyRetrievalDAO {
	return &PolicyRetrievalDAO{Driver: driver, Timeout: timeout}
}

// FindPolicies returns every policy whose resource and action equal the arguments exactly.
func (dao *PolicyRetrievalDAO) FindPolicies(ctx context.Context, resource, action string) ([]*model.Policy, error) {
	start := time.Now()
	if dao.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dao.Timeout)
		defer cancel()
	}

	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		query := `
        MATCH (p:` + taskhub_neo4j.LabelPolicy + ` {resource: $resource, action: $action})
        RETURN p
        ORDER BY p.createdAt ASC
        `
		records, err := tx.Run(ctx, query, map[string]interface{}{
			"resource": resource,
			"action":   action,
		})
		if err != nil {
			return nil, err
		}

		policies := []*model.Policy{}
		for records.Next(ctx) {
			node, ok := records.Record().Values[0].(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected policy record type %T", records.Record().Values[0])
			}
			policy, err := taskhub_neo4j.PolicyFromProps(node.Props)
			if err != nil {
				return nil, err
			}
			policies = append(policies, policy)
		}
		return policies, records.Err()
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to retrieve policies",
			zap.Error(err),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Duration("duration", duration))
		return nil, err
	}

	policies := result.([]*model.Policy)
	logger.Debug("Retrieved policies",
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Int("policy_count", len(policies)),
		zap.Duration("duration", duration))

	return policies, nil
}
