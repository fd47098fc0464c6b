package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/taskhub/api/audit"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
	helper_util "github.com/dev-mohitbeniwal/taskhub/api/util/helper"
)

const defaultAuditWindow = 24 * time.Hour

type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup, abac *middleware.ABAC) {
	r.GET("/audit", abac.Authorize("/audit", http.MethodGet), ac.QueryLogs)
}

// QueryLogs handles GET /audit?from=&to=&userId=&resource=&size=
func (ac *AuditController) QueryLogs(c *gin.Context) {
	now := time.Now().UTC()
	to, err := helper_util.TimeQuery(c, "to", now)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp", err)
		return
	}
	from, err := helper_util.TimeQuery(c, "from", to.Add(-defaultAuditWindow))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp", err)
		return
	}
	if from.After(to) {
		util.RespondWithError(c, http.StatusBadRequest, "'from' must not be after 'to'", nil)
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "100"))
	if err != nil || size <= 0 {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid size", err)
		return
	}

	logs, err := ac.auditService.QueryLogs(c.Request.Context(), audit.LogQuery{
		From:     from,
		To:       to,
		UserID:   c.Query("userId"),
		Resource: c.Query("resource"),
		Size:     size,
	})
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query audit logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
