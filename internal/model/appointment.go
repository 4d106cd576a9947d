package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "requested"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusConfirmed, AppointmentStatusCancelled,
		AppointmentStatusNoShow, AppointmentStatusCompleted:
		return true
	}
	return false
}

type Appointment struct {
	ID              int64             `db:"id" json:"id"`
	PatientID       int64             `db:"patient_id" json:"patient_id"`
	StaffID         int64             `db:"staff_id" json:"staff_id"`
	ServiceTypeCode string            `db:"service_type_code" json:"service_type_code"`
	StartAt         time.Time         `db:"start_at" json:"start"`
	EndAt           time.Time         `db:"end_at" json:"end"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          string            `db:"reason" json:"reason"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

// Overlaps reports a half-open [start, end) intersection.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.StartAt, a.EndAt, start, end)
}

type BookAppointmentRequest struct {
	PatientID       int64     `json:"patient_id" binding:"required,gt=0"`
	StaffID         int64     `json:"staff_id" binding:"required,gt=0"`
	ServiceTypeCode string    `json:"service_type_code" binding:"required,max=32"`
	Start           time.Time `json:"start" binding:"required"`
	End             time.Time `json:"end" binding:"required"`
	Reason          string    `json:"reason" binding:"max=2000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=confirmed cancelled no_show completed"`
}

type AppointmentFilter struct {
	PatientID *int64
	StaffID   *int64
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps is the half-open interval test: not (aEnd <= bStart or aStart >= bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

// AvailabilityBlock is a recurring weekly window when a staff member can be booked.
// Weekday uses Monday=0 ... Sunday=6; times are wall-clock HH:MM in the clinic zone.
type AvailabilityBlock struct {
	ID        int64     `db:"id" json:"id"`
	StaffID   int64     `db:"staff_id" json:"staff_id"`
	Weekday   int       `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Minutes returns the start and end as minutes past midnight.
func (b *AvailabilityBlock) Minutes() (start, end int, err error) {
	if start, err = parseClock(b.StartTime); err != nil {
		return 0, 0, err
	}
	if end, err = parseClock(b.EndTime); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

type CreateAvailabilityRequest struct {
	StaffID   int64  `json:"staff_id" binding:"required,gt=0"`
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

// WeekdayIndex converts Go's Sunday=0 weekday into Monday=0.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// parseClock accepts HH:MM or HH:MM:SS, the latter being how TIME columns scan.
func parseClock(s string) (int, error) {
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil || len(s) != len(layout) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
