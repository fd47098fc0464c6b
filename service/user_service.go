// api/service/user_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

// IUserService defines the interface for user operations
type IUserService interface {
	UpsertUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID model.ID) (*model.User, error)
	GetPrincipal(ctx context.Context, userID model.ID) (*model.Principal, error)
	ListTeamMembers(ctx context.Context, teamID model.ID) ([]*model.User, error)
}

// UserRepository is the persistence dao.UserDAO provides.
type UserRepository interface {
	UpsertUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID model.ID) (*model.User, error)
	ListTeamMembers(ctx context.Context, teamID model.ID) ([]*model.User, error)
}

// UserCache is satisfied by util.CacheService.
type UserCache interface {
	GetUser(ctx context.Context, userID model.ID) (*model.User, int64, error)
	SetUser(ctx context.Context, gen int64, user model.User) error
	InvalidateUser(ctx context.Context, userID model.ID) error
}

// UserService resolves principals for authentication, reading through the user cache.
type UserService struct {
	userDAO        UserRepository
	validationUtil *util.ValidationUtil
	cache          UserCache
}

var _ IUserService = &UserService{}

func NewUserService(userDAO UserRepository, validationUtil *util.ValidationUtil, cache UserCache) *UserService {
	return &UserService{userDAO: userDAO, validationUtil: validationUtil, cache: cache}
}

func (s *UserService) UpsertUser(ctx context.Context, user model.User) error {
	if err := s.validationUtil.ValidateUser(user); err != nil {
		return fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidUserData, err)
	}
	if err := s.userDAO.UpsertUser(ctx, user); err != nil {
		return err
	}
	if err := s.cache.InvalidateUser(ctx, user.ID); err != nil {
		logger.Error("Failed to invalidate cached user", zap.Error(err), zap.String("userID", string(user.ID)))
		return fmt.Errorf("%w: %v", taskhub_errors.ErrUserCacheInvalidation, err)
	}
	return nil
}

// GetUser reads through the cache. A fill carries the generation seen on the
// miss, so an upsert that lands mid-read retires it.
func (s *UserService) GetUser(ctx context.Context, userID model.ID) (*model.User, error) {
	cached, gen, err := s.cache.GetUser(ctx, userID)
	if err != nil {
		logger.Warn("User cache read failed", zap.Error(err), zap.String("userID", string(userID)))
		return s.userDAO.GetUser(ctx, userID)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := s.userDAO.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetUser(ctx, gen, *user); err != nil {
		logger.Warn("Failed to cache user", zap.Error(err), zap.String("userID", string(userID)))
	}
	return user, nil
}

// GetPrincipal implements middleware.PrincipalLoader.
func (s *UserService) GetPrincipal(ctx context.Context, userID model.ID) (*model.Principal, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	principal := user.Principal()
	return &principal, nil
}

// ListTeamMembers reads membership straight from the store; it is not cached.
func (s *UserService) ListTeamMembers(ctx context.Context, teamID model.ID) ([]*model.User, error) {
	return s.userDAO.ListTeamMembers(ctx, teamID)
}
