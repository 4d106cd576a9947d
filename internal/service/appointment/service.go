package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/internal/service/audit"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/lock"
	"github.com/unihealth/care-api/pkg/metrics"
)

const (
	MinSlotMinutes = 5
	MaxSlotMinutes = 240
)

type Config struct {
	Location           *time.Location
	DefaultSlotMinutes int
}

type Service struct {
	repo         repository.AppointmentRepository
	availability repository.AvailabilityRepository
	users        repository.UserRepository
	catalogs     repository.CatalogRepository
	locker       lock.Locker
	metrics      *metrics.Metrics
	auditor      audit.Recorder
	cfg          Config
}

func NewService(
	repo repository.AppointmentRepository,
	availability repository.AvailabilityRepository,
	users repository.UserRepository,
	catalogs repository.CatalogRepository,
	locker lock.Locker,
	m *metrics.Metrics,
	auditor audit.Recorder,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultSlotMinutes == 0 {
		cfg.DefaultSlotMinutes = 30
	}
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Service{
		repo:         repo,
		availability: availability,
		users:        users,
		catalogs:     catalogs,
		locker:       locker,
		metrics:      m,
		auditor:      auditor,
		cfg:          cfg,
	}
}

// Slots returns the free windows of staffID on date. A nil length selects the default.
func (s *Service) Slots(ctx context.Context, staffID int64, date time.Time, length *int) ([]model.TimeSlot, error) {
	minutes := s.cfg.DefaultSlotMinutes
	if length != nil {
		minutes = *length
	}
	if minutes < MinSlotMinutes || minutes > MaxSlotMinutes {
		return nil, apperrors.Validation(fmt.Sprintf("minutes must be within [%d, %d]", MinSlotMinutes, MaxSlotMinutes))
	}
	if err := s.requireStaff(ctx, staffID); err != nil {
		return nil, err
	}

	weekday := model.WeekdayIndex(date.Weekday())
	blocks, err := s.availability.ListForWeekday(ctx, staffID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	from, to := dayBounds(date, s.cfg.Location)
	booked, err := s.repo.ListBetween(ctx, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	slots := GenerateSlots(blocks, date, s.cfg.Location, time.Duration(minutes)*time.Minute, booked)
	s.metrics.Slots(len(slots))
	return slots, nil
}

// Book creates an appointment unless it overlaps another non-cancelled
// appointment of the same staff member.
func (s *Service) Book(ctx context.Context, actor model.Actor, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !actor.Can(model.PermAppointmentBookSelf) {
		return nil, apperrors.Forbidden("")
	}
	if req.PatientID != actor.ID && !actor.Can(model.PermAppointmentBookAny) {
		return nil, apperrors.Forbidden("patients may only book for themselves")
	}
	if !req.End.After(req.Start) {
		return nil, apperrors.Validation("end must be after start")
	}
	if _, err := s.users.Get(ctx, req.PatientID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("patient does not exist")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if err := s.requireStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}
	serviceType, err := s.catalogs.Lookup(ctx, model.CatalogServiceTypes, req.ServiceTypeCode)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("unknown or inactive service type")
		}
		return nil, fmt.Errorf("failed to look up service type: %w", err)
	}

	status := model.AppointmentStatusRequested
	if actor.Role.IsStaff() {
		status = model.AppointmentStatusConfirmed
	}
	appt := &model.Appointment{
		PatientID:       req.PatientID,
		StaffID:         req.StaffID,
		ServiceTypeCode: serviceType.Code,
		StartAt:         req.Start.UTC(),
		EndAt:           req.End.UTC(),
		Status:          status,
		Reason:          req.Reason,
	}

	err = s.locker.WithLock(ctx, fmt.Sprintf("staff:%d", req.StaffID), func(ctx context.Context) error {
		return s.repo.CreateIfNoConflict(ctx, appt)
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			s.metrics.Conflict()
			return nil, apperrors.Conflict("staff schedule is being updated, retry", err)
		}
		if apperrors.Is(err, apperrors.ErrConflict) {
			s.metrics.Conflict()
			return nil, err
		}
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.metrics.Booked(string(status))
	s.record(ctx, actor, model.AuditActionCreate, appt.ID, model.JSONMap{"status": string(status)})
	return appt, nil
}

// UpdateStatus lets staff set any status; patients may only cancel their own appointments.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() || status == model.AppointmentStatusRequested {
		return nil, apperrors.Validation("status must be one of confirmed, cancelled, no_show, completed")
	}
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(model.PermAppointmentManage) {
		if actor.Role != model.RolePatient || appt.PatientID != actor.ID || status != model.AppointmentStatusCancelled {
			return nil, apperrors.Forbidden("")
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, model.AuditActionUpdate, id, model.JSONMap{"from": string(appt.Status), "status": string(status)})
	return updated, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (*model.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(model.PermAppointmentReadAll) && appt.PatientID != actor.ID {
		return nil, apperrors.Forbidden("")
	}
	return appt, nil
}

// List returns appointments newest first. With mine set, staff see their own
// schedule and patients their own bookings; patients never see others'.
func (s *Service) List(ctx context.Context, actor model.Actor, mine bool) ([]*model.Appointment, error) {
	filter := &model.AppointmentFilter{}
	id := actor.ID
	switch {
	case mine && actor.Role.IsStaff():
		filter.StaffID = &id
	case mine || !actor.Can(model.PermAppointmentReadAll):
		filter.PatientID = &id
	}
	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) CreateBlock(ctx context.Context, actor model.Actor, req *model.CreateAvailabilityRequest) (*model.AvailabilityBlock, error) {
	if !actor.Can(model.PermAvailabilityManage) {
		return nil, apperrors.Forbidden("")
	}
	if req.Weekday == nil || *req.Weekday < 0 || *req.Weekday > 6 {
		return nil, apperrors.Validation("weekday must be within [0, 6]")
	}
	block := &model.AvailabilityBlock{
		StaffID:   req.StaffID,
		Weekday:   *req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	start, end, err := block.Minutes()
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if end <= start {
		return nil, apperrors.Validation("end_time must be after start_time")
	}
	if err := s.requireStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}

	if err := s.availability.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to create availability block: %w", err)
	}
	return block, nil
}

func (s *Service) ListBlocks(ctx context.Context, staffID int64) ([]*model.AvailabilityBlock, error) {
	blocks, err := s.availability.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return blocks, nil
}

func (s *Service) DeleteBlock(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.Can(model.PermAvailabilityManage) {
		return apperrors.Forbidden("")
	}
	return s.availability.Delete(ctx, id)
}

func (s *Service) requireStaff(ctx context.Context, staffID int64) error {
	staff, err := s.users.Get(ctx, staffID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("staff member does not exist")
		}
		return fmt.Errorf("failed to get staff member: %w", err)
	}
	if !staff.Role.IsStaff() || !staff.Active {
		return apperrors.Validation("staff member does not exist")
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor model.Actor, action string, id int64, meta model.JSONMap) {
	if s.auditor != nil {
		s.auditor.Record(ctx, actor, action, model.AuditEntityAppointment, id, meta)
	}
}
