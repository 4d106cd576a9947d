package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/pkg/metrics"
)

// Repositories bundles every PostgreSQL repository over one pool.
type Repositories struct {
	Users        repository.UserRepository
	Patients     repository.PatientRepository
	Catalogs     repository.CatalogRepository
	Appointments repository.AppointmentRepository
	Availability repository.AvailabilityRepository
	Alerts       repository.AlertRepository
	Medical      repository.MedicalRepository
	Audit        repository.AuditRepository
}

func NewRepositories(db *sqlx.DB, m *metrics.Metrics) *Repositories {
	base := NewBaseRepository(db, m)
	return &Repositories{
		Users:        NewUserRepository(base),
		Patients:     NewPatientRepository(base),
		Catalogs:     NewCatalogRepository(base),
		Appointments: NewAppointmentRepository(base),
		Availability: NewAvailabilityRepository(base),
		Alerts:       NewAlertRepository(base),
		Medical:      NewMedicalRepository(base),
		Audit:        NewAuditRepository(base),
	}
}
