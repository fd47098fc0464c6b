// test/mock/repository.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// MockPolicyRepository is a mock implementation of service.PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) CreatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error) {
	args := m.Called(ctx, policy)
	if fn, ok := args.Get(0).(func(context.Context, model.Policy) *model.Policy); ok {
		return fn(ctx, policy), args.Error(1)
	}
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyRepository) UpdatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error) {
	args := m.Called(ctx, policy)
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyRepository) DeletePolicy(ctx context.Context, policyID model.ID) error {
	args := m.Called(ctx, policyID)
	return args.Error(0)
}

func (m *MockPolicyRepository) GetPolicy(ctx context.Context, policyID model.ID) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyRepository) ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	args := m.Called(ctx, limit, offset)
	p, _ := args.Get(0).([]*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyRepository) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	args := m.Called(ctx, criteria)
	p, _ := args.Get(0).([]*model.Policy)
	return p, args.Error(1)
}

// MockUserRepository is a mock implementation of service.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UpsertUser(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ListTeamMembers(ctx context.Context, teamID model.ID) ([]*model.User, error) {
	args := m.Called(ctx, teamID)
	if fn, ok := args.Get(0).(func(context.Context, model.ID) []*model.User); ok {
		return fn(ctx, teamID), args.Error(1)
	}
	u, _ := args.Get(0).([]*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, userID model.ID) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}
