package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/security"
)

type PatientService interface {
	GetProfile(ctx context.Context, actor model.Actor) (*model.PatientProfile, error)
	UpsertProfile(ctx context.Context, actor model.Actor, req *model.ProfileRequest) (*model.PatientProfile, error)
	ListConsents(ctx context.Context, actor model.Actor) ([]*model.Consent, error)
	AcceptConsent(ctx context.Context, actor model.Actor, req *model.ConsentRequest, ip string) ([]*model.Consent, error)
}

type Service struct {
	repo      repository.PatientRepository
	encryptor security.Encryptor
}

// NewService stores allergies and medical history sealed with encryptor;
// a nil encryptor stores them as given.
func NewService(repo repository.PatientRepository, encryptor security.Encryptor) *Service {
	return &Service{repo: repo, encryptor: encryptor}
}

func (s *Service) GetProfile(ctx context.Context, actor model.Actor) (*model.PatientProfile, error) {
	profile, err := s.repo.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.transform(profile, security.OpenString); err != nil {
		return nil, fmt.Errorf("failed to decrypt profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or replaces the caller's own profile.
func (s *Service) UpsertProfile(ctx context.Context, actor model.Actor, req *model.ProfileRequest) (*model.PatientProfile, error) {
	profile := &model.PatientProfile{
		UserID:           actor.ID,
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		EmergencyContact: req.EmergencyContact,
		Allergies:        req.Allergies,
		MedicalHistory:   req.MedicalHistory,
	}
	if profile.FirstName == "" || profile.LastName == "" {
		return nil, apperrors.Validation("first_name and last_name are required")
	}
	if req.Sex != "" {
		sex := strings.ToUpper(req.Sex)
		if sex != "M" && sex != "F" && sex != "X" {
			return nil, apperrors.Validation("sex must be M, F or X")
		}
		profile.Sex = &sex
	}
	if req.BirthDate != "" {
		d, err := model.ParseDate(req.BirthDate)
		if err != nil {
			return nil, apperrors.Validation("birth_date must be YYYY-MM-DD")
		}
		profile.BirthDate = &d
	}

	stored := *profile
	if err := s.transform(&stored, security.SealString); err != nil {
		return nil, fmt.Errorf("failed to encrypt profile: %w", err)
	}
	if err := s.repo.UpsertProfile(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	profile.CreatedAt, profile.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return profile, nil
}

func (s *Service) transform(p *model.PatientProfile, fn func(security.Encryptor, string) (string, error)) error {
	if s.encryptor == nil {
		return nil
	}
	for _, field := range []**string{&p.Allergies, &p.MedicalHistory} {
		if *field == nil {
			continue
		}
		out, err := fn(s.encryptor, **field)
		if err != nil {
			return err
		}
		*field = &out
	}
	return nil
}

func (s *Service) ListConsents(ctx context.Context, actor model.Actor) ([]*model.Consent, error) {
	consents, err := s.repo.ListConsents(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	return consents, nil
}

// AcceptConsent records acceptance of a terms version and returns the full history.
func (s *Service) AcceptConsent(ctx context.Context, actor model.Actor, req *model.ConsentRequest, ip string) ([]*model.Consent, error) {
	version := strings.TrimSpace(req.Version)
	if version == "" || len(version) > 20 {
		return nil, apperrors.Validation("version is required and at most 20 characters")
	}
	consent := &model.Consent{UserID: actor.ID, Version: version}
	if ip != "" {
		consent.IP = &ip
	}
	if err := s.repo.AddConsent(ctx, consent); err != nil {
		return nil, fmt.Errorf("failed to record consent: %w", err)
	}
	return s.ListConsents(ctx, actor)
}
