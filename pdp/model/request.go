package model

// RequestContext carries the ambient request attributes conditions may consult.
type RequestContext struct {
	// TeamID comes from the route's :teamId parameter; empty when the route has none.
	TeamID string `json:"teamId,omitempty"`
}

// AccessRequest is the resource/action pair a principal is attempting.
type AccessRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
	RequestContext
}
