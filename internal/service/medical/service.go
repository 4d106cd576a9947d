package medical

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/internal/service/audit"
	"github.com/unihealth/care-api/internal/storage"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type Service struct {
	repo     repository.MedicalRepository
	users    repository.UserRepository
	catalogs repository.CatalogRepository
	files    storage.FileStore
	auditor  audit.Recorder
}

func NewService(
	repo repository.MedicalRepository,
	users repository.UserRepository,
	catalogs repository.CatalogRepository,
	files storage.FileStore,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		catalogs: catalogs,
		files:    files,
		auditor:  auditor,
	}
}

func (s *Service) CreateRecord(ctx context.Context, actor model.Actor, req *model.CreateRecordRequest) (*model.ClinicalRecord, error) {
	if !actor.Can(model.PermRecordWrite) {
		return nil, apperrors.Forbidden("")
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	noteType, err := s.catalogs.Lookup(ctx, model.CatalogNoteTypes, req.NoteTypeCode)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("unknown or inactive note type")
		}
		return nil, fmt.Errorf("failed to look up note type: %w", err)
	}

	record := &model.ClinicalRecord{
		PatientID:    req.PatientID,
		CreatedByID:  actor.ID,
		NoteTypeCode: noteType.Code,
		Note:         req.Note,
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create clinical record: %w", err)
	}
	s.record(ctx, actor, model.AuditActionCreate, model.AuditEntityClinicalRecord, record.ID, model.JSONMap{"patient_id": record.PatientID})
	return record, nil
}

// ListRecords returns a patient's records newest first. Patients may read their own.
func (s *Service) ListRecords(ctx context.Context, actor model.Actor, patientID int64) ([]*model.ClinicalRecord, error) {
	if err := canRead(actor, patientID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListRecords(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	s.record(ctx, actor, model.AuditActionRead, model.AuditEntityClinicalRecord, patientID, model.JSONMap{"count": len(records)})
	return records, nil
}

func (s *Service) CreateVitals(ctx context.Context, actor model.Actor, req *model.CreateVitalsRequest) (*model.VitalSign, error) {
	if !actor.Can(model.PermRecordWrite) {
		return nil, apperrors.Forbidden("")
	}
	if err := validateVitals(req); err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	vitals := &model.VitalSign{
		PatientID:    req.PatientID,
		TakenByID:    actor.ID,
		Systolic:     req.Systolic,
		Diastolic:    req.Diastolic,
		HeartRate:    req.HeartRate,
		TemperatureC: req.TemperatureC,
		SpO2:         req.SpO2,
	}
	if err := s.repo.CreateVitals(ctx, vitals); err != nil {
		return nil, fmt.Errorf("failed to record vitals: %w", err)
	}
	s.record(ctx, actor, model.AuditActionCreate, model.AuditEntityVitals, vitals.ID, model.JSONMap{"patient_id": vitals.PatientID})
	return vitals, nil
}

func (s *Service) ListVitals(ctx context.Context, actor model.Actor, patientID int64) ([]*model.VitalSign, error) {
	if err := canRead(actor, patientID); err != nil {
		return nil, err
	}
	vitals, err := s.repo.ListVitals(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vitals: %w", err)
	}
	s.record(ctx, actor, model.AuditActionRead, model.AuditEntityVitals, patientID, model.JSONMap{"count": len(vitals)})
	return vitals, nil
}

// Upload stores the file and links it to an existing clinical record or alert.
func (s *Service) Upload(ctx context.Context, actor model.Actor, owner model.OwnerTable, ownerID int64, name, mime string, r io.Reader) (*model.Attachment, error) {
	if !actor.Can(model.PermRecordWrite) {
		return nil, apperrors.Forbidden("")
	}
	if !owner.Valid() {
		return nil, apperrors.Validation("owner_table must be clinical_records or alerts")
	}
	exists, err := s.repo.OwnerExists(ctx, owner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attachment owner: %w", err)
	}
	if !exists {
		return nil, apperrors.Validation(fmt.Sprintf("%s %d does not exist", owner, ownerID))
	}

	key, size, err := s.files.Save(ctx, name, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	att := &model.Attachment{
		OwnerTable:  owner,
		OwnerID:     ownerID,
		FileName:    storage.SanitizeName(name),
		Mime:        mime,
		StoragePath: key,
		SizeBytes:   size,
		CreatedByID: actor.ID,
	}
	if err := s.repo.CreateAttachment(ctx, att); err != nil {
		if rmErr := s.files.Remove(key); rmErr != nil {
			log.Warn().Err(rmErr).Str("key", key).Msg("failed to remove orphaned attachment")
		}
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	s.record(ctx, actor, model.AuditActionCreate, model.AuditEntityAttachment, att.ID, model.JSONMap{"owner_table": string(owner), "owner_id": ownerID})
	return att, nil
}

func (s *Service) GetAttachment(ctx context.Context, actor model.Actor, id int64) (*model.Attachment, error) {
	if !actor.Can(model.PermRecordReadAny) {
		return nil, apperrors.Forbidden("")
	}
	att, err := s.repo.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, model.AuditActionRead, model.AuditEntityAttachment, att.ID, nil)
	return att, nil
}

func (s *Service) ListAttachments(ctx context.Context, actor model.Actor, owner model.OwnerTable, ownerID int64) ([]*model.Attachment, error) {
	if !actor.Can(model.PermRecordReadAny) {
		return nil, apperrors.Forbidden("")
	}
	if !owner.Valid() {
		return nil, apperrors.Validation("owner_table must be clinical_records or alerts")
	}
	atts, err := s.repo.ListAttachments(ctx, owner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	s.record(ctx, actor, model.AuditActionRead, model.AuditEntityAttachment, ownerID, model.JSONMap{"owner_table": string(owner), "count": len(atts)})
	return atts, nil
}

// FilePath resolves the on-disk location of an attachment.
func (s *Service) FilePath(att *model.Attachment) string {
	return s.files.Path(att.StoragePath)
}

func (s *Service) requirePatient(ctx context.Context, id int64) error {
	if _, err := s.users.Get(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("patient does not exist")
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}
	return nil
}

func canRead(actor model.Actor, patientID int64) error {
	if actor.ID == patientID || actor.Can(model.PermRecordReadAny) {
		return nil
	}
	return apperrors.Forbidden("")
}

type bound struct {
	field    string
	value    *float64
	min, max float64
}

func validateVitals(req *model.CreateVitalsRequest) error {
	asFloat := func(v *int) *float64 {
		if v == nil {
			return nil
		}
		f := float64(*v)
		return &f
	}
	bounds := []bound{
		{"systolic", asFloat(req.Systolic), 40, 260},
		{"diastolic", asFloat(req.Diastolic), 20, 160},
		{"heart_rate", asFloat(req.HeartRate), 20, 260},
		{"temperature_c", req.TemperatureC, 30, 45},
		{"spo2", asFloat(req.SpO2), 50, 100},
	}
	for _, b := range bounds {
		if b.value != nil && (*b.value < b.min || *b.value > b.max) {
			return apperrors.Validation(fmt.Sprintf("%s must be within [%g, %g]", b.field, b.min, b.max))
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor model.Actor, action, entity string, id int64, meta model.JSONMap) {
	if s.auditor != nil {
		s.auditor.Record(ctx, actor, action, entity, id, meta)
	}
}
