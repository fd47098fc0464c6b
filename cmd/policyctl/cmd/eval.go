package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_dao "github.com/dev-mohitbeniwal/taskhub/api/pdp/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

func newEvalCmd() *cobra.Command {
	var (
		file     string
		userID   string
		resource string
		action   string
		teamID   string
		hour     int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one request against a fixture file",
		Example: `  policyctl eval -f fixtures.yaml --user u1 --resource /tasks --action POST
  policyctl eval -f fixtures.yaml --user u1 --resource /teams/:teamId/projects --action GET --team T1 --hour 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hour < -1 || hour > 23 {
				return fmt.Errorf("--hour must be between 0 and 23")
			}

			fx, err := LoadFixtures(file)
			if err != nil {
				return err
			}
			user, ok := fx.User(model.ID(userID))
			if !ok {
				return fmt.Errorf("user %q is not defined in %s", userID, file)
			}

			var opts []engine.EvaluatorOption
			if hour >= 0 {
				opts = append(opts, engine.WithClock(fixedHour(hour)))
			}
			dp := engine.NewDecisionPoint(pdp_dao.NewMemoryPolicyStore(fx.Policies...), engine.NewPolicyEvaluator(opts...))

			verdict, err := dp.Decide(cmd.Context(), user.Principal(), pdp_model.AccessRequest{
				Resource:       resource,
				Action:         strings.ToUpper(action),
				RequestContext: pdp_model.RequestContext{TeamID: teamID},
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file with users and policies")
	cmd.Flags().StringVar(&userID, "user", "", "principal id from the fixture file")
	cmd.Flags().StringVar(&resource, "resource", "", "route template, e.g. /tasks")
	cmd.Flags().StringVar(&action, "action", "", "HTTP verb")
	cmd.Flags().StringVar(&teamID, "team", "", "value of the :teamId route parameter")
	cmd.Flags().IntVar(&hour, "hour", -1, "evaluate as if the local hour were this (0-23)")
	for _, name := range []string{"file", "user", "resource", "action"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func fixedHour(hour int) engine.Clock {
	return func() time.Time {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	}
}
