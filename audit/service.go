// api/audit/service.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

type Service interface {
	LogAccess(ctx context.Context, log AuditLog) error
	QueryLogs(ctx context.Context, q LogQuery) ([]AuditLog, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogAccess(ctx context.Context, log AuditLog) error {
	return s.repo.LogAccess(ctx, log)
}

func (s *service) QueryLogs(ctx context.Context, q LogQuery) ([]AuditLog, error) {
	return s.repo.QueryLogs(ctx, q)
}

// SubscribePolicyChanges records every policy event published on bus.
func SubscribePolicyChanges(bus *util.EventBus, svc Service) {
	record := func(action string) util.EventHandler {
		return func(ctx context.Context, e util.Event) error {
			details, err := json.Marshal(e.Payload)
			if err != nil {
				logger.Warn("Failed to encode policy change", zap.Error(err), zap.String("action", action))
				details = nil
			}
			entry := AuditLog{
				Timestamp:     time.Now().UTC(),
				UserID:        e.ActorID,
				Action:        action,
				Resource:      "/policies",
				PolicyID:      e.SubjectID,
				AccessGranted: true,
				ChangeDetails: details,
			}
			if err := svc.LogAccess(ctx, entry); err != nil {
				return fmt.Errorf("audit %s for policy %s: %w", action, e.SubjectID, err)
			}
			return nil
		}
	}
	bus.Subscribe(util.EventPolicyCreated, record(ActionPolicyCreated))
	bus.Subscribe(util.EventPolicyUpdated, record(ActionPolicyUpdated))
	bus.Subscribe(util.EventPolicyDeleted, record(ActionPolicyDeleted))
}
