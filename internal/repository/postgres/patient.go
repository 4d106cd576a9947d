package postgres

import (
	"context"
	"fmt"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) GetProfile(ctx context.Context, userID int64) (*model.PatientProfile, error) {
	var p model.PatientProfile
	query := `
		SELECT user_id, first_name, last_name, birth_date, sex, emergency_contact,
		       allergies, medical_history, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		return nil, mapError(err, "profile")
	}
	return &p, nil
}

// UpsertProfile inserts or replaces the profile of profile.UserID.
func (r *patientRepository) UpsertProfile(ctx context.Context, p *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (
			user_id, first_name, last_name, birth_date, sex,
			emergency_contact, allergies, medical_history
		) VALUES (:user_id, :first_name, :last_name, :birth_date, :sex,
			:emergency_contact, :allergies, :medical_history)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			birth_date = EXCLUDED.birth_date,
			sex = EXCLUDED.sex,
			emergency_contact = EXCLUDED.emergency_contact,
			allergies = EXCLUDED.allergies,
			medical_history = EXCLUDED.medical_history,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return mapError(err, "profile")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan profile: %w", err)
		}
	}
	return rows.Err()
}

func (r *patientRepository) AddConsent(ctx context.Context, c *model.Consent) error {
	query := `
		INSERT INTO consents (user_id, version, ip)
		VALUES ($1, $2, $3)
		RETURNING id, accepted_at
	`
	if err := r.db.QueryRowxContext(ctx, query, c.UserID, c.Version, c.IP).Scan(&c.ID, &c.AcceptedAt); err != nil {
		return mapError(err, "consent")
	}
	return nil
}

func (r *patientRepository) ListConsents(ctx context.Context, userID int64) ([]*model.Consent, error) {
	consents := []*model.Consent{}
	query := `
		SELECT id, user_id, version, accepted_at, HOST(ip) AS ip
		FROM consents
		WHERE user_id = $1
		ORDER BY accepted_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &consents, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	return consents, nil
}
