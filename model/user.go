package model

import (
	"slices"
	"time"
)

type User struct {
	ID         ID        `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Email      string    `json:"email" yaml:"email"`
	Role       string    `json:"role" yaml:"role"`
	Department string    `json:"department,omitempty" yaml:"department,omitempty"`
	Teams      []ID      `json:"teams" yaml:"teams"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// Principal is the authenticated identity a request is evaluated for.
type Principal struct {
	ID         ID     `json:"id"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Teams      []ID   `json:"teams"`
}

// Principal snapshots the attributes used during authorization.
func (u User) Principal() Principal {
	teams := make([]ID, len(u.Teams))
	copy(teams, u.Teams)
	return Principal{
		ID:         u.ID,
		Role:       u.Role,
		Department: u.Department,
		Teams:      teams,
	}
}

// InTeam reports whether team is one of the principal's teams. The empty id is
// never a member.
func (p Principal) InTeam(team ID) bool {
	if team == "" {
		return false
	}
	return slices.Contains(p.Teams, team)
}
