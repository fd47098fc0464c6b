package model

import "github.com/dev-mohitbeniwal/taskhub/api/model"

// AccessDecision is the outcome of evaluating a single policy. Reason and
// Details are populated only on denial.
type AccessDecision struct {
	Granted bool                   `json:"granted"`
	Reason  string                 `json:"reason,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DenialReason records why one policy (or the absence of any) did not grant.
type DenialReason struct {
	PolicyID model.ID               `json:"-"`
	Reason   string                 `json:"reason"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Verdict is the combined outcome across every policy for a request.
type Verdict struct {
	Granted           bool           `json:"granted"`
	GrantedBy         model.ID       `json:"grantedBy,omitempty"`
	Reasons           []DenialReason `json:"reasons,omitempty"`
	EvaluatedPolicies []model.ID     `json:"evaluatedPolicies,omitempty"`
}
