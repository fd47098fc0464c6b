// api/service/services.go
package service

import (
	"github.com/dev-mohitbeniwal/taskhub/api/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

type Services struct {
	Policy IPolicyService
	User   IUserService
}

func InitializeServices(
	policyDAO *dao.PolicyDAO,
	userDAO *dao.UserDAO,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	eventBus *util.EventBus,
) *Services {
	return &Services{
		Policy: NewPolicyService(policyDAO, validationUtil, cacheService, eventBus),
		User:   NewUserService(userDAO, validationUtil, cacheService),
	}
}
