package user

import (
	"context"
	"fmt"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/internal/service/audit"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/security"
)

type UserServicer interface {
	CreateUser(ctx context.Context, actor model.Actor, req *model.CreateUserRequest) (*model.User, error)
	ListUsers(ctx context.Context, actor model.Actor, filter *model.UserFilter) ([]*model.User, error)
	SetActive(ctx context.Context, actor model.Actor, id int64, active bool) (*model.User, error)
}

type Service struct {
	repo    repository.UserRepository
	hasher  security.PasswordHasher
	auditor audit.Recorder
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		auditor: auditor,
	}
}

// CreateUser lets an admin create an account with any role.
func (s *Service) CreateUser(ctx context.Context, actor model.Actor, req *model.CreateUserRequest) (*model.User, error) {
	if !actor.Can(model.PermUserManage) {
		return nil, apperrors.Forbidden("")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if security.IsPolicyError(err) {
			return nil, apperrors.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Email: req.Email, PasswordHash: hash, Role: role, Active: true}
	if err := s.repo.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.record(ctx, actor, model.AuditActionCreate, user.ID, model.JSONMap{"role": string(role)})
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, actor model.Actor, filter *model.UserFilter) ([]*model.User, error) {
	if !actor.Can(model.PermUserManage) {
		return nil, apperrors.Forbidden("")
	}
	if filter.Role != "" {
		role, err := model.ParseRole(string(filter.Role))
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		filter.Role = role
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetActive enables or disables an account. Admins cannot disable themselves.
func (s *Service) SetActive(ctx context.Context, actor model.Actor, id int64, active bool) (*model.User, error) {
	if !actor.Can(model.PermUserManage) {
		return nil, apperrors.Forbidden("")
	}
	if id == actor.ID && !active {
		return nil, apperrors.Validation("cannot deactivate your own account")
	}
	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, model.AuditActionUpdate, id, model.JSONMap{"active": active})
	return user, nil
}

func (s *Service) record(ctx context.Context, actor model.Actor, action string, id int64, meta model.JSONMap) {
	if s.auditor != nil {
		s.auditor.Record(ctx, actor, action, model.AuditEntityUser, id, meta)
	}
}
