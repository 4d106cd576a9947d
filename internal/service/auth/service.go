package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/internal/service/audit"
	"github.com/unihealth/care-api/pkg/auth"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService,
	hasher security.PasswordHasher, auditor audit.Recorder) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		auditor:  auditor,
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if !user.Active {
		return nil, apperrors.Unauthorized(errors.New("account is disabled"))
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, user.Actor(), model.AuditActionLogin, model.AuditEntityUser, user.ID, nil)
	}

	return s.issue(user, true)
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.Unauthorized(errors.New("account is disabled"))
	}
	return s.issue(user, false)
}

// Register creates a patient account. Staff accounts are created by admins.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	role := model.RolePatient
	if req.Role != "" {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		if parsed != model.RolePatient {
			return nil, apperrors.Forbidden("public registration is limited to patients")
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if security.IsPolicyError(err) {
			return nil, apperrors.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, user.Actor(), model.AuditActionCreate, model.AuditEntityUser, user.ID, nil)
	}

	return s.issue(user, true)
}

// Me returns the current user record of actor.
func (s *Service) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate turns an access token into an Actor. Inactive or deleted
// users are rejected even while their token is still valid.
func (s *Service) Authenticate(ctx context.Context, token string) (model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Actor{}, apperrors.Unauthorized(err)
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Actor{}, apperrors.Unauthorized(err)
	}
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return model.Actor{}, apperrors.Unauthorized(err)
		}
		return model.Actor{}, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Active {
		return model.Actor{}, apperrors.Unauthorized(errors.New("account is disabled"))
	}
	return user.Actor(), nil
}

func (s *Service) issue(user *model.User, withRefresh bool) (*model.TokenResponse, error) {
	sub := auth.Subject{ID: user.ID, Email: user.Email, Role: string(user.Role)}

	access, err := s.jwtSvc.GenerateAccessToken(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	resp := &model.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtSvc.AccessTTL().Seconds()),
		User:        user,
	}
	if withRefresh {
		refresh, err := s.jwtSvc.GenerateRefreshToken(sub)
		if err != nil {
			return nil, fmt.Errorf("failed to generate refresh token: %w", err)
		}
		resp.RefreshToken = refresh
	}
	return resp, nil
}
