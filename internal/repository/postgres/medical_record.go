package postgres

import (
	"context"
	"fmt"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type medicalRepository struct {
	BaseRepository
}

func NewMedicalRepository(base BaseRepository) repository.MedicalRepository {
	return &medicalRepository{base}
}

func (r *medicalRepository) CreateRecord(ctx context.Context, rec *model.ClinicalRecord) error {
	query := `
		INSERT INTO clinical_records (patient_id, created_by_id, note_type_code, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, rec.PatientID, rec.CreatedByID, rec.NoteTypeCode, rec.Note).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	return mapError(err, "clinical record")
}

func (r *medicalRepository) ListRecords(ctx context.Context, patientID int64) ([]*model.ClinicalRecord, error) {
	records := []*model.ClinicalRecord{}
	query := `
		SELECT id, patient_id, created_by_id, note_type_code, note, created_at, updated_at
		FROM clinical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	return records, nil
}

func (r *medicalRepository) CreateVitals(ctx context.Context, v *model.VitalSign) error {
	query := `
		INSERT INTO vital_signs (patient_id, taken_by_id, systolic, diastolic, heart_rate, temperature_c, spo2)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, taken_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		v.PatientID,
		v.TakenByID,
		v.Systolic,
		v.Diastolic,
		v.HeartRate,
		v.TemperatureC,
		v.SpO2,
	).Scan(&v.ID, &v.TakenAt)
	return mapError(err, "vital sign")
}

func (r *medicalRepository) ListVitals(ctx context.Context, patientID int64) ([]*model.VitalSign, error) {
	vitals := []*model.VitalSign{}
	query := `
		SELECT id, patient_id, taken_by_id, systolic, diastolic, heart_rate,
		       temperature_c::float8 AS temperature_c, spo2, taken_at
		FROM vital_signs
		WHERE patient_id = $1
		ORDER BY taken_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &vitals, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return vitals, nil
}

func (r *medicalRepository) CreateAttachment(ctx context.Context, a *model.Attachment) error {
	query := `
		INSERT INTO attachments (owner_table, owner_id, file_name, mime, storage_path, size_bytes, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		a.OwnerTable,
		a.OwnerID,
		a.FileName,
		a.Mime,
		a.StoragePath,
		a.SizeBytes,
		a.CreatedByID,
	).Scan(&a.ID, &a.CreatedAt)
	return mapError(err, "attachment")
}

func (r *medicalRepository) GetAttachment(ctx context.Context, id int64) (*model.Attachment, error) {
	var a model.Attachment
	query := `
		SELECT id, owner_table, owner_id, file_name, mime, storage_path, size_bytes, created_by_id, created_at
		FROM attachments WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, mapError(err, "attachment")
	}
	return &a, nil
}

func (r *medicalRepository) ListAttachments(ctx context.Context, owner model.OwnerTable, ownerID int64) ([]*model.Attachment, error) {
	attachments := []*model.Attachment{}
	query := `
		SELECT id, owner_table, owner_id, file_name, mime, storage_path, size_bytes, created_by_id, created_at
		FROM attachments
		WHERE owner_table = $1 AND owner_id = $2
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &attachments, query, owner, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// OwnerExists checks the polymorphic owner reference, which has no foreign key.
func (r *medicalRepository) OwnerExists(ctx context.Context, owner model.OwnerTable, ownerID int64) (bool, error) {
	if !owner.Valid() {
		return false, apperrors.Validation("owner_table must be clinical_records or alerts")
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + string(owner) + ` WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, ownerID); err != nil {
		return false, fmt.Errorf("failed to check attachment owner: %w", err)
	}
	return exists, nil
}
