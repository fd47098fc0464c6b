// api/controller/controllers.go
package controller

import (
	"github.com/dev-mohitbeniwal/taskhub/api/audit"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/service"
)

type Controllers struct {
	Policy *PolicyController
	User   *UserController
	Access *AccessController
	Audit  *AuditController
}

func InitializeControllers(services *service.Services, decider middleware.Decider, auditService audit.Service) *Controllers {
	return &Controllers{
		Policy: NewPolicyController(services.Policy),
		User:   NewUserController(services.User),
		Access: NewAccessController(decider),
		Audit:  NewAuditController(auditService),
	}
}
