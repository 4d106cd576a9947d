// Package memory implements the repository interfaces over process memory.
// It backs service and handler tests and mirrors the PostgreSQL semantics
// that callers rely on: not-found and conflict errors, ordering, and the
// per-staff overlap check on booking.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

// Store holds every table; the repositories share its lock.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	users        map[int64]*model.User
	profiles     map[int64]*model.PatientProfile
	consents     []*model.Consent
	catalogs     map[model.Catalog][]*model.CatalogEntry
	appointments []*model.Appointment
	blocks       []*model.AvailabilityBlock
	alerts       map[int64]*model.Alert
	events       []*model.AlertEvent
	records      []*model.ClinicalRecord
	vitals       []*model.VitalSign
	attachments  []*model.Attachment
	audit        []*model.AuditLog
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    map[int64]*model.User{},
		profiles: map[int64]*model.PatientProfile{},
		catalogs: map[model.Catalog][]*model.CatalogEntry{},
		alerts:   map[int64]*model.Alert{},
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

func (s *Store) Patients() repository.PatientRepository { return (*patientRepo)(s) }

func (s *Store) Catalogs() repository.CatalogRepository { return (*catalogRepo)(s) }

func (s *Store) Appointments() repository.AppointmentRepository { return (*appointmentRepo)(s) }

func (s *Store) Availability() repository.AvailabilityRepository { return (*availabilityRepo)(s) }

func (s *Store) Alerts() repository.AlertRepository { return (*alertRepo)(s) }

func (s *Store) Medical() repository.MedicalRepository { return (*medicalRepo)(s) }

func (s *Store) Audit() repository.AuditRepository { return (*auditRepo)(s) }

// AuditLogs returns a copy of the recorded audit entries.
func (s *Store) AuditLogs() []*model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.AuditLog(nil), s.audit...)
}

// ---- users ----

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.Conflict("user already exists", nil)
		}
	}
	u.ID = s.nextID()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) Get(_ context.Context, id int64) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *userRepo) List(_ context.Context, f *model.UserFilter) ([]*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.User{}
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	page := f.Pagination.Normalize(50, 200)
	if page.Offset >= len(out) {
		return []*model.User{}, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (r *userRepo) SetActive(_ context.Context, id int64, active bool) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	u.Active = active
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		t := at
		u.LastLoginAt = &t
	}
	return nil
}

// ---- patients ----

type patientRepo Store

func (r *patientRepo) GetProfile(_ context.Context, userID int64) (*model.PatientProfile, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *patientRepo) UpsertProfile(_ context.Context, p *model.PatientProfile) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (r *patientRepo) AddConsent(_ context.Context, c *model.Consent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID()
	c.AcceptedAt = s.now()
	cp := *c
	s.consents = append(s.consents, &cp)
	return nil
}

func (r *patientRepo) ListConsents(_ context.Context, userID int64) ([]*model.Consent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Consent{}
	for i := len(s.consents) - 1; i >= 0; i-- {
		if c := s.consents[i]; c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- catalogs ----

type catalogRepo Store

func (r *catalogRepo) Lookup(_ context.Context, c model.Catalog, code string) (*model.CatalogEntry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.catalogs[c] {
		if e.Active && strings.EqualFold(e.Code, code) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("catalog entry", nil)
}

func (r *catalogRepo) ListActive(_ context.Context, c model.Catalog) ([]*model.CatalogEntry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.CatalogEntry{}
	for _, e := range s.catalogs[c] {
		if e.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *catalogRepo) Upsert(_ context.Context, c model.Catalog, e *model.CatalogEntry) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.catalogs[c] {
		if existing.Code == e.Code {
			existing.Name, existing.Active = e.Name, e.Active
			e.ID = existing.ID
			return nil
		}
	}
	e.ID = s.nextID()
	cp := *e
	s.catalogs[c] = append(s.catalogs[c], &cp)
	return nil
}

// ---- appointments ----

type appointmentRepo Store

func (r *appointmentRepo) CreateIfNoConflict(_ context.Context, a *model.Appointment) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.appointments {
		if existing.StaffID == a.StaffID &&
			existing.Status != model.AppointmentStatusCancelled &&
			existing.Overlaps(a.StartAt, a.EndAt) {
			return apperrors.Conflict("time slot conflicts with an existing appointment", nil)
		}
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	cp := *a
	s.appointments = append(s.appointments, &cp)
	return nil
}

func (r *appointmentRepo) Get(_ context.Context, id int64) (*model.Appointment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("appointment", nil)
}

func (r *appointmentRepo) UpdateStatus(_ context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID != id {
			continue
		}
		if a.Status == model.AppointmentStatusCancelled && status != model.AppointmentStatusCancelled {
			for _, other := range s.appointments {
				if other.ID != a.ID && other.StaffID == a.StaffID &&
					other.Status != model.AppointmentStatusCancelled &&
					other.Overlaps(a.StartAt, a.EndAt) {
					return nil, apperrors.Conflict("time slot conflicts with an existing appointment", nil)
				}
			}
		}
		a.Status = status
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.NotFound("appointment", nil)
}

func (r *appointmentRepo) List(_ context.Context, f *model.AppointmentFilter) ([]*model.Appointment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range s.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.StaffID != nil && a.StaffID != *f.StaffID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, nil
}

func (r *appointmentRepo) ListBetween(_ context.Context, staffID int64, from, to time.Time) ([]*model.Appointment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range s.appointments {
		if a.StaffID == staffID && a.Status != model.AppointmentStatusCancelled && a.Overlaps(from, to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// ---- availability ----

type availabilityRepo Store

func (r *availabilityRepo) Create(_ context.Context, b *model.AvailabilityBlock) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID()
	b.CreatedAt = s.now()
	cp := *b
	s.blocks = append(s.blocks, &cp)
	return nil
}

func (r *availabilityRepo) Delete(_ context.Context, id int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.blocks {
		if b.ID == id {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("availability block", nil)
}

func (r *availabilityRepo) ListByStaff(_ context.Context, staffID int64) ([]*model.AvailabilityBlock, error) {
	return r.list(staffID, -1), nil
}

func (r *availabilityRepo) ListForWeekday(_ context.Context, staffID int64, weekday int) ([]*model.AvailabilityBlock, error) {
	return r.list(staffID, weekday), nil
}

func (r *availabilityRepo) list(staffID int64, weekday int) []*model.AvailabilityBlock {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.AvailabilityBlock{}
	for _, b := range s.blocks {
		if b.StaffID == staffID && (weekday < 0 || b.Weekday == weekday) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// ---- alerts ----

type alertRepo Store

func (r *alertRepo) Create(_ context.Context, a *model.Alert, ev *model.AlertEvent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID()
	cp := *a
	s.alerts[a.ID] = &cp
	ev.AlertID = a.ID
	s.appendEvent(ev)
	return nil
}

func (s *Store) appendEvent(ev *model.AlertEvent) {
	ev.ID = s.nextID()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	cp := *ev
	s.events = append(s.events, &cp)
}

func (r *alertRepo) Get(_ context.Context, id int64) (*model.Alert, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, apperrors.NotFound("alert", nil)
	}
	cp := *a
	return &cp, nil
}

func (r *alertRepo) Transition(_ context.Context, id int64, fn func(*model.Alert) ([]*model.AlertEvent, error)) (*model.Alert, []*model.AlertEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.alerts[id]
	if !ok {
		return nil, nil, apperrors.NotFound("alert", nil)
	}
	working := *stored
	events, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return &working, nil, nil
	}
	*stored = working
	for _, ev := range events {
		ev.AlertID = id
		s.appendEvent(ev)
	}
	out := working
	return &out, events, nil
}

func (r *alertRepo) AddEvent(_ context.Context, ev *model.AlertEvent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[ev.AlertID]; !ok {
		return apperrors.NotFound("alert", nil)
	}
	s.appendEvent(ev)
	return nil
}

func (r *alertRepo) List(_ context.Context, patientID *int64) ([]*model.Alert, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Alert{}
	for _, a := range s.alerts {
		if patientID != nil && (a.PatientID == nil || *a.PatientID != *patientID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *alertRepo) Events(_ context.Context, alertID int64) ([]*model.AlertEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.AlertEvent{}
	for _, ev := range s.events {
		if ev.AlertID == alertID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- medical ----

type medicalRepo Store

func (r *medicalRepo) CreateRecord(_ context.Context, rec *model.ClinicalRecord) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID()
	rec.CreatedAt = s.now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (r *medicalRepo) ListRecords(_ context.Context, patientID int64) ([]*model.ClinicalRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.ClinicalRecord{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if rec := s.records[i]; rec.PatientID == patientID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *medicalRepo) CreateVitals(_ context.Context, v *model.VitalSign) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID()
	v.TakenAt = s.now()
	cp := *v
	s.vitals = append(s.vitals, &cp)
	return nil
}

func (r *medicalRepo) ListVitals(_ context.Context, patientID int64) ([]*model.VitalSign, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.VitalSign{}
	for i := len(s.vitals) - 1; i >= 0; i-- {
		if v := s.vitals[i]; v.PatientID == patientID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *medicalRepo) CreateAttachment(_ context.Context, a *model.Attachment) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attachments {
		if existing.StoragePath == a.StoragePath {
			return apperrors.Conflict("attachment already exists", nil)
		}
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	cp := *a
	s.attachments = append(s.attachments, &cp)
	return nil
}

func (r *medicalRepo) GetAttachment(_ context.Context, id int64) (*model.Attachment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attachments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("attachment", nil)
}

func (r *medicalRepo) ListAttachments(_ context.Context, owner model.OwnerTable, ownerID int64) ([]*model.Attachment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Attachment{}
	for i := len(s.attachments) - 1; i >= 0; i-- {
		if a := s.attachments[i]; a.OwnerTable == owner && a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *medicalRepo) OwnerExists(_ context.Context, owner model.OwnerTable, ownerID int64) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch owner {
	case model.OwnerAlerts:
		_, ok := s.alerts[ownerID]
		return ok, nil
	case model.OwnerClinicalRecords:
		for _, rec := range s.records {
			if rec.ID == ownerID {
				return true, nil
			}
		}
		return false, nil
	}
	return false, apperrors.Validation("owner_table must be clinical_records or alerts")
}

// ---- audit ----

type auditRepo Store

func (r *auditRepo) Create(_ context.Context, l *model.AuditLog) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID()
	l.CreatedAt = s.now()
	cp := *l
	s.audit = append(s.audit, &cp)
	return nil
}

func (r *auditRepo) List(_ context.Context, f *model.AuditFilter) ([]*model.AuditLog, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.AuditLog{}
	page := f.Pagination.Normalize(100, 500)
	for i := len(s.audit) - 1; i >= 0 && len(out) < page.Limit; i-- {
		l := s.audit[i]
		if f.ActorID != nil && (l.ActorID == nil || *l.ActorID != *f.ActorID) {
			continue
		}
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *auditRepo) Cleanup(_ context.Context, before time.Time) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.audit[:0]
	var removed int64
	for _, l := range s.audit {
		if l.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.audit = kept
	return removed, nil
}
