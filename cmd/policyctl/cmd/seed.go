package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/taskhub/api/config"
	"github.com/dev-mohitbeniwal/taskhub/api/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/db"
	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/service"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

// seedActor is recorded as the author of policies written by seed.
const seedActor model.ID = "policyctl"

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert users and policies from a fixture file into neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixtures(file)
			if err != nil {
				return err
			}
			if err := config.InitConfig(); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			if err := db.InitNeo4j(); err != nil {
				return err
			}
			defer db.CloseNeo4j()

			// Cached policy sets are dropped when redis is reachable; otherwise
			// they expire on their own.
			cacheService := util.NewCacheService(nil)
			if err := db.InitRedis(); err != nil {
				logger.Warn("Redis unavailable, cached policy sets will not be invalidated", zap.Error(err))
			} else {
				defer db.CloseRedis()
				cache, err := db.NewRedisCache(db.RedisClient,
					[]byte(config.GetString("redis.encryptionKey")),
					config.GetDuration("redis.defaultCacheTTL"))
				if err != nil {
					return err
				}
				cacheService = util.NewCacheService(cache)
			}

			policyDAO := dao.NewPolicyDAO(db.Neo4jDriver)
			userDAO := dao.NewUserDAO(db.Neo4jDriver)
			if err := policyDAO.EnsureUniqueConstraint(cmd.Context()); err != nil {
				return err
			}
			if err := userDAO.EnsureUniqueConstraint(cmd.Context()); err != nil {
				return err
			}

			services := service.InitializeServices(policyDAO, userDAO, util.NewValidationUtil(), cacheService, nil)
			return seed(cmd.Context(), fx, services.Policy, services.User, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file with users and policies")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// seed upserts every fixture. A policy whose id already exists is updated.
func seed(ctx context.Context, fx *Fixtures, policies service.IPolicyService, users service.IUserService, out io.Writer) error {
	for _, u := range fx.Users {
		if err := users.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
	}

	created, updated := 0, 0
	for _, p := range fx.Policies {
		_, err := policies.CreatePolicy(ctx, p, seedActor)
		if errors.Is(err, taskhub_errors.ErrPolicyConflict) {
			_, err = policies.UpdatePolicy(ctx, p, seedActor)
			if err == nil {
				updated++
				continue
			}
		}
		if err != nil {
			return fmt.Errorf("policy %s: %w", p.ID, err)
		}
		created++
	}

	fmt.Fprintf(out, "seeded %d users, %d policies created, %d updated\n", len(fx.Users), created, updated)
	return nil
}
