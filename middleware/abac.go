// api/middleware/abac.go

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/taskhub/api/audit"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

const (
	// VerdictKey holds the granting *pdp_model.Verdict for downstream handlers.
	VerdictKey = "verdict"

	AccessDeniedMessage = "Access denied. Insufficient permissions."

	auditWriteTimeout = 2 * time.Second
)

// Decider is satisfied by engine.DecisionPoint.
type Decider interface {
	Decide(ctx context.Context, principal model.Principal, request pdp_model.AccessRequest) (*pdp_model.Verdict, error)
}

// DeniedResponse is the 403 body.
type DeniedResponse struct {
	Message string                   `json:"message"`
	Reasons []pdp_model.DenialReason `json:"reasons"`
}

// ErrorResponse is the 500 body for pipeline and store faults.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type ABAC struct {
	decider  Decider
	auditSvc audit.Service
}

// NewABAC builds the authorization middleware factory. auditSvc may be nil.
func NewABAC(decider Decider, auditSvc audit.Service) *ABAC {
	return &ABAC{decider: decider, auditSvc: auditSvc}
}

// Authorize gates a route on the policies bound to exactly resource and action.
// It expects Authenticate (or an equivalent stage) to have run first.
func (a *ABAC) Authorize(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		principal, ok := PrincipalFromContext(c)
		if !ok {
			logger.Error("Authorization invoked without an authenticated principal",
				zap.String("resource", resource),
				zap.String("action", action),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal server error.",
				Error:   "missing authenticated principal",
			})
			return
		}

		request := pdp_model.AccessRequest{
			Resource:       resource,
			Action:         action,
			RequestContext: pdp_model.RequestContext{TeamID: c.Param("teamId")},
		}

		verdict, err := a.decider.Decide(c.Request.Context(), principal, request)
		if err != nil {
			logger.Error("Authorization failed: policy store unavailable",
				zap.Error(err),
				zap.String("principal", string(principal.ID)),
				zap.String("resource", resource),
				zap.String("action", action),
				zap.Duration("duration", time.Since(start)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Authorization service unavailable.",
				Error:   "policy store failure",
			})
			return
		}

		a.record(c.Request.Context(), principal, request, verdict)

		if verdict.Granted {
			c.Set(VerdictKey, verdict)
			c.Next()
			return
		}

		logger.Warn("Access denied",
			zap.String("principal", string(principal.ID)),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.String("teamId", request.TeamID),
			zap.Int("reasons", len(verdict.Reasons)),
			zap.Duration("duration", time.Since(start)))
		c.AbortWithStatusJSON(http.StatusForbidden, DeniedResponse{
			Message: AccessDeniedMessage,
			Reasons: verdict.Reasons,
		})
	}
}

// record writes one audit entry per decision. Failures are logged only.
func (a *ABAC) record(ctx context.Context, principal model.Principal, request pdp_model.AccessRequest, verdict *pdp_model.Verdict) {
	if a.auditSvc == nil {
		return
	}
	entry := audit.AuditLog{
		Timestamp:     time.Now().UTC(),
		UserID:        string(principal.ID),
		Action:        request.Action,
		Resource:      request.Resource,
		TeamID:        request.TeamID,
		AccessGranted: verdict.Granted,
		PolicyID:      string(verdict.GrantedBy),
	}
	for _, r := range verdict.Reasons {
		entry.Reasons = append(entry.Reasons, r.Reason)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := a.auditSvc.LogAccess(ctx, entry); err != nil {
		logger.Error("Failed to write access audit record",
			zap.Error(err),
			zap.String("principal", entry.UserID),
			zap.String("resource", entry.Resource),
			zap.String("action", entry.Action))
	}
}
