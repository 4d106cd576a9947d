package repository

import (
	"context"
	"time"

	"github.com/unihealth/care-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
		SetActive(ctx context.Context, id int64, active bool) (*model.User, error)
		TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	}

	PatientRepository interface {
		GetProfile(ctx context.Context, userID int64) (*model.PatientProfile, error)
		UpsertProfile(ctx context.Context, profile *model.PatientProfile) error
		AddConsent(ctx context.Context, consent *model.Consent) error
		ListConsents(ctx context.Context, userID int64) ([]*model.Consent, error)
	}

	CatalogRepository interface {
		// Lookup finds an active entry by code, case-insensitively.
		Lookup(ctx context.Context, catalog model.Catalog, code string) (*model.CatalogEntry, error)
		ListActive(ctx context.Context, catalog model.Catalog) ([]*model.CatalogEntry, error)
		Upsert(ctx context.Context, catalog model.Catalog, entry *model.CatalogEntry) error
	}

	AppointmentRepository interface {
		// CreateIfNoConflict inserts the appointment unless a non-cancelled appointment
		// of the same staff member overlaps it; overlaps return a Conflict AppError.
		CreateIfNoConflict(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error)
		List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error)
		// ListBetween returns the non-cancelled appointments of staffID intersecting [from, to).
		ListBetween(ctx context.Context, staffID int64, from, to time.Time) ([]*model.Appointment, error)
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, block *model.AvailabilityBlock) error
		Delete(ctx context.Context, id int64) error
		ListByStaff(ctx context.Context, staffID int64) ([]*model.AvailabilityBlock, error)
		ListForWeekday(ctx context.Context, staffID int64, weekday int) ([]*model.AvailabilityBlock, error)
	}

	AlertRepository interface {
		// Create inserts the alert and its creation event in one transaction.
		Create(ctx context.Context, alert *model.Alert, event *model.AlertEvent) error
		Get(ctx context.Context, id int64) (*model.Alert, error)
		// Transition locks the alert row, applies fn and persists the alert and
		// the events fn returns in one transaction.
		Transition(ctx context.Context, id int64, fn func(*model.Alert) ([]*model.AlertEvent, error)) (*model.Alert, []*model.AlertEvent, error)
		AddEvent(ctx context.Context, event *model.AlertEvent) error
		List(ctx context.Context, patientID *int64) ([]*model.Alert, error)
		Events(ctx context.Context, alertID int64) ([]*model.AlertEvent, error)
	}

	MedicalRepository interface {
		CreateRecord(ctx context.Context, record *model.ClinicalRecord) error
		ListRecords(ctx context.Context, patientID int64) ([]*model.ClinicalRecord, error)
		CreateVitals(ctx context.Context, vitals *model.VitalSign) error
		ListVitals(ctx context.Context, patientID int64) ([]*model.VitalSign, error)
		CreateAttachment(ctx context.Context, attachment *model.Attachment) error
		GetAttachment(ctx context.Context, id int64) (*model.Attachment, error)
		ListAttachments(ctx context.Context, owner model.OwnerTable, ownerID int64) ([]*model.Attachment, error)
		OwnerExists(ctx context.Context, owner model.OwnerTable, ownerID int64) (bool, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
