// api/dao/user_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	taskhub_neo4j "github.com/dev-mohitbeniwal/taskhub/api/model/neo4j"
)

// UserDAO reads the principal directory: User nodes and their MEMBER_OF team edges.
type UserDAO struct {
	Driver neo4j.DriverWithContext
}

func NewUserDAO(driver neo4j.DriverWithContext) *UserDAO {
	return &UserDAO{Driver: driver}
}

func (dao *UserDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraints on User and Team ID")
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		statements := []string{
			`CREATE CONSTRAINT unique_user_id IF NOT EXISTS FOR (u:` + taskhub_neo4j.LabelUser + `) REQUIRE u.id IS UNIQUE`,
			`CREATE CONSTRAINT unique_team_id IF NOT EXISTS FOR (t:` + taskhub_neo4j.LabelTeam + `) REQUIRE t.id IS UNIQUE`,
		}
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on User ID", zap.Error(err))
		return err
	}

	logger.Info("Successfully ensured unique constraints on User and Team ID")
	return nil
}

// UpsertUser creates or replaces a user and its team memberships.
func (dao *UserDAO) UpsertUser(ctx context.Context, user model.User) error {
	start := time.Now()
	now := time.Now().UTC().Truncate(time.Second)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	teams := make([]string, 0, len(user.Teams))
	for _, t := range user.Teams {
		teams = append(teams, string(t))
	}

	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer closeSession(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		props := taskhub_neo4j.UserProps(user)
		createdAt := props[taskhub_neo4j.AttrCreatedAt]
		delete(props, taskhub_neo4j.AttrCreatedAt)

		query := `
        MERGE (u:` + taskhub_neo4j.LabelUser + ` {id: $id})
        ON CREATE SET u.createdAt = $createdAt
        SET u += $props
        WITH u
        OPTIONAL MATCH (u)-[old:` + taskhub_neo4j.RelMemberOf + `]->(:` + taskhub_neo4j.LabelTeam + `)
        DELETE old
        WITH DISTINCT u
        UNWIND $teams AS teamId
        MERGE (t:` + taskhub_neo4j.LabelTeam + ` {id: teamId})
        MERGE (u)-[:` + taskhub_neo4j.RelMemberOf + `]->(t)
        `
		_, err := tx.Run(ctx, query, map[string]interface{}{
			"id":        string(user.ID),
			"createdAt": createdAt,
			"props":     props,
			"teams":     teams,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to upsert user",
			zap.Error(err),
			zap.String("userID", string(user.ID)),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("User upserted",
		zap.String("userID", string(user.ID)),
		zap.Int("teams", len(teams)),
		zap.Duration("duration", duration))
	return nil
}

// GetUser loads a user with its team ids, or ErrUserNotFound.
func (dao *UserDAO) GetUser(ctx context.Context, userID model.ID) (*model.User, error) {
	start := time.Now()
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer closeSession(ctx, session)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		records, err := tx.Run(ctx, `
        MATCH (u:`+taskhub_neo4j.LabelUser+` {id: $id})
        OPTIONAL MATCH (u)-[:`+taskhub_neo4j.RelMemberOf+`]->(t:`+taskhub_neo4j.LabelTeam+`)
        RETURN u, collect(t.id) AS teams
        `, map[string]interface{}{"id": string(userID)})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		if !records.Next(ctx) {
			return nil, taskhub_errors.ErrUserNotFound
		}
		record := records.Record()
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected user record type %T", record.Values[0])
		}
		teams, _ := record.Values[1].([]interface{})
		return taskhub_neo4j.UserFromProps(node.Props, teams)
	})

	duration := time.Since(start)
	if err != nil {
		logger.Warn("Failed to get user",
			zap.Error(err),
			zap.String("userID", string(userID)),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Debug("User retrieved",
		zap.String("userID", string(userID)),
		zap.Duration("duration", duration))
	return result.(*model.User), nil
}

// ListTeamMembers returns the users holding a MEMBER_OF edge to teamID, ordered
// by id. An unknown team has no members.
func (dao *UserDAO) ListTeamMembers(ctx context.Context, teamID model.ID) ([]*model.User, error) {
	start := time.Now()
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer closeSession(ctx, session)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		records, err := tx.Run(ctx, `
        MATCH (u:`+taskhub_neo4j.LabelUser+`)-[:`+taskhub_neo4j.RelMemberOf+`]->(:`+taskhub_neo4j.LabelTeam+` {id: $teamId})
        OPTIONAL MATCH (u)-[:`+taskhub_neo4j.RelMemberOf+`]->(t:`+taskhub_neo4j.LabelTeam+`)
        RETURN u, collect(t.id) AS teams
        ORDER BY u.id
        `, map[string]interface{}{"teamId": string(teamID)})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}

		members := []*model.User{}
		for records.Next(ctx) {
			record := records.Record()
			node, ok := record.Values[0].(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected user record type %T", record.Values[0])
			}
			teams, _ := record.Values[1].([]interface{})
			user, err := taskhub_neo4j.UserFromProps(node.Props, teams)
			if err != nil {
				return nil, err
			}
			members = append(members, user)
		}
		if err := records.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrDatabaseOperation, err)
		}
		return members, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to list team members",
			zap.Error(err),
			zap.String("teamID", string(teamID)),
			zap.Duration("duration", duration))
		return nil, err
	}

	members := result.([]*model.User)
	logger.Debug("Team members listed",
		zap.String("teamID", string(teamID)),
		zap.Int("count", len(members)),
		zap.Duration("duration", duration))
	return members, nil
}
