// api/controller/policy_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/service"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
	helper_util "github.com/dev-mohitbeniwal/taskhub/api/util/helper"
)

const maxBulkPolicies = 500

type PolicyController struct {
	policyService service.IPolicyService
}

func NewPolicyController(policyService service.IPolicyService) *PolicyController {
	return &PolicyController{
		policyService: policyService,
	}
}

// RegisterRoutes registers the policy administration routes, each gated by
// the policies bound to its own route template.
func (pc *PolicyController) RegisterRoutes(r *gin.RouterGroup, abac *middleware.ABAC) {
	policies := r.Group("/policies")
	{
		policies.POST("", abac.Authorize("/policies", http.MethodPost), pc.CreatePolicy)
		policies.GET("", abac.Authorize("/policies", http.MethodGet), pc.ListPolicies)
		policies.POST("/search", abac.Authorize("/policies/search", http.MethodPost), pc.SearchPolicies)
		policies.POST("/bulk", abac.Authorize("/policies/bulk", http.MethodPost), pc.BulkCreatePolicies)
		policies.GET("/:id", abac.Authorize("/policies/:id", http.MethodGet), pc.GetPolicy)
		policies.PUT("/:id", abac.Authorize("/policies/:id", http.MethodPut), pc.UpdatePolicy)
		policies.DELETE("/:id", abac.Authorize("/policies/:id", http.MethodDelete), pc.DeletePolicy)
	}
}

// CreatePolicy endpoint
func (pc *PolicyController) CreatePolicy(c *gin.Context) {
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", err)
		return
	}

	createdPolicy, err := pc.policyService.CreatePolicy(c.Request.Context(), policy, requestingUser(c))
	if err != nil {
		respondPolicyError(c, err, "Failed to create policy")
		return
	}

	c.JSON(http.StatusCreated, createdPolicy)
}

// UpdatePolicy endpoint
func (pc *PolicyController) UpdatePolicy(c *gin.Context) {
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", err)
		return
	}
	policy.ID = model.ID(c.Param("id"))

	updatedPolicy, err := pc.policyService.UpdatePolicy(c.Request.Context(), policy, requestingUser(c))
	if err != nil {
		respondPolicyError(c, err, "Failed to update policy")
		return
	}

	c.JSON(http.StatusOK, updatedPolicy)
}

// DeletePolicy endpoint
func (pc *PolicyController) DeletePolicy(c *gin.Context) {
	if err := pc.policyService.DeletePolicy(c.Request.Context(), model.ID(c.Param("id")), requestingUser(c)); err != nil {
		respondPolicyError(c, err, "Failed to delete policy")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Policy deleted successfully"})
}

// GetPolicy endpoint
func (pc *PolicyController) GetPolicy(c *gin.Context) {
	policy, err := pc.policyService.GetPolicy(c.Request.Context(), model.ID(c.Param("id")))
	if err != nil {
		respondPolicyError(c, err, "Failed to retrieve policy")
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListPolicies endpoint
func (pc *PolicyController) ListPolicies(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	policies, err := pc.policyService.ListPolicies(c.Request.Context(), limit, offset)
	if err != nil {
		respondPolicyError(c, err, "Failed to list policies")
		return
	}

	c.JSON(http.StatusOK, policies)
}

// SearchPolicies endpoint
func (pc *PolicyController) SearchPolicies(c *gin.Context) {
	var criteria model.PolicySearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid search criteria", err)
		return
	}

	policies, err := pc.policyService.SearchPolicies(c.Request.Context(), criteria)
	if err != nil {
		respondPolicyError(c, err, "Failed to search policies")
		return
	}

	c.JSON(http.StatusOK, policies)
}

// BulkCreatePolicies endpoint
func (pc *PolicyController) BulkCreatePolicies(c *gin.Context) {
	var policies []model.Policy
	if err := c.ShouldBindJSON(&policies); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", err)
		return
	}
	if len(policies) == 0 || len(policies) > maxBulkPolicies {
		util.RespondWithError(c, http.StatusBadRequest, "Bulk request must contain 1 to 500 policies", taskhub_errors.ErrInvalidPolicyData)
		return
	}

	ids, err := pc.policyService.BulkCreatePolicies(c.Request.Context(), policies, requestingUser(c))
	if err != nil {
		if anyCreated(ids) {
			// the batch is not rolled back; report what was written
			util.RespondWithErrorFields(c, http.StatusInternalServerError, "Some policies were not created", err, gin.H{"ids": ids})
			return
		}
		respondPolicyError(c, err, "Failed to create policies")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ids": ids})
}

func anyCreated(ids []model.ID) bool {
	for _, id := range ids {
		if id != "" {
			return true
		}
	}
	return false
}

func requestingUser(c *gin.Context) model.ID {
	principal, _ := middleware.PrincipalFromContext(c)
	return principal.ID
}

func respondPolicyError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, taskhub_errors.ErrPolicyNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Policy not found", err)
	case errors.Is(err, taskhub_errors.ErrPolicyConflict):
		util.RespondWithError(c, http.StatusConflict, "Policy already exists", err)
	case errors.Is(err, taskhub_errors.ErrInvalidPolicyData):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, taskhub_errors.ErrInvalidPagination):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
	case errors.Is(err, taskhub_errors.ErrInvalidSearchCriteria):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid search criteria", err)
	case errors.Is(err, taskhub_errors.ErrCacheInvalidation):
		util.RespondWithError(c, http.StatusInternalServerError, "Policy saved but cached decisions could not be refreshed", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
