// api/errors/access_errors.go
package errors

import "errors"

var (
	// ErrAccessDenied means no applicable policy granted the request.
	ErrAccessDenied = errors.New("access denied")
	// ErrNoPrincipal means the authorization stage ran without an authenticated principal.
	ErrNoPrincipal = errors.New("no authenticated principal in request context")
	// ErrPolicyStore wraps any failure to read policies.
	ErrPolicyStore = errors.New("policy store failure")

	ErrUnauthorized = errors.New("unauthorized")
)
