package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

// Fixtures is the policyctl file format.
//
//	users:
//	  - id: u1
//	    name: Ada
//	    role: pm
//	    teams: [T1]
//	policies:
//	  - id: pm-create-task
//	    name: PMs create tasks
//	    resource: /tasks
//	    action: POST
//	    conditions:
//	      role: pm
type Fixtures struct {
	Users    []model.User   `yaml:"users"`
	Policies []model.Policy `yaml:"policies"`
}

// LoadFixtures reads and validates a fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

// DecodeFixtures rejects unknown keys anywhere in the document, then runs the
// same validation the API applies.
func DecodeFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	v := util.NewValidationUtil()
	for i := range fx.Users {
		if fx.Users[i].Teams == nil {
			fx.Users[i].Teams = []model.ID{}
		}
		if err := v.ValidateUser(fx.Users[i]); err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
	}
	for i := range fx.Policies {
		if err := v.ValidatePolicy(&fx.Policies[i]); err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, fx.Policies[i].ID, err)
		}
	}
	return &fx, nil
}

// User finds a fixture user by id.
func (fx *Fixtures) User(id model.ID) (model.User, bool) {
	for _, u := range fx.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}
