// api/controller/user_controller.go
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
)

// UserController manages the principal directory the authenticator reads.
type UserController struct {
	userService service.IUserService
}

func NewUserController(userService service.IUserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// RegisterRoutes registers the API routes
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup, abac *middleware.ABAC) {
	users := r.Group("/users")
	{
		users.PUT("/:id", abac.Authorize("/users/:id", http.MethodPut), uc.UpsertUser)
		users.GET("/:id", abac.Authorize("/users/:id", http.MethodGet), uc.GetUser)
	}
	r.GET("/teams/:teamId/members", abac.Authorize("/teams/:teamId/members", http.MethodGet), uc.ListTeamMembers)
}

// UpsertUser replaces a user's role, department and team memberships.
func (uc *UserController) UpsertUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	user.ID = model.ID(c.Param("id"))
	if user.Teams == nil {
		user.Teams = []model.ID{}
	}

	if err := uc.userService.UpsertUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, taskhub_errors.ErrInvalidUserData) {
			util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to save user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser endpoint
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.userService.GetUser(c.Request.Context(), model.ID(c.Param("id")))
	if err != nil {
		if errors.Is(err, taskhub_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
			return
		}
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListTeamMembers lists the users in the team named by the path. Team-scoped
// policies see the same :teamId.
func (uc *UserController) ListTeamMembers(c *gin.Context) {
	members, err := uc.userService.ListTeamMembers(c.Request.Context(), model.ID(c.Param("teamId")))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list team members", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teamId": c.Param("teamId"), "members": members})
}
