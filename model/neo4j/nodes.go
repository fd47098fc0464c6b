// api/model/neo4j/nodes.go
package taskhub_neo4j

// Node Labels
const (
	// LabelUser represents a principal that can be authorized
	LabelUser = "User"

	// LabelTeam represents a team users can be members of
	LabelTeam = "Team"

	// LabelPolicy represents an access control policy
	LabelPolicy = "POLICY"
)

// Relationship Types
const (
	// RelMemberOf represents the relationship between a user and their teams
	RelMemberOf = "MEMBER_OF"
)
