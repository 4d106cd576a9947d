package model

import "time"

// ClinicalRecord is a nursing note about a patient.
type ClinicalRecord struct {
	ID           int64     `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	CreatedByID  int64     `db:"created_by_id" json:"created_by_id"`
	NoteTypeCode string    `db:"note_type_code" json:"note_type_code"`
	Note         string    `db:"note" json:"note"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRecordRequest struct {
	PatientID    int64  `json:"patient_id" binding:"required,gt=0"`
	NoteTypeCode string `json:"note_type_code" binding:"required,max=32"`
	Note         string `json:"note"`
}

// VitalSign is one set of measurements; every measurement is optional.
type VitalSign struct {
	ID           int64     `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	TakenByID    int64     `db:"taken_by_id" json:"taken_by_id"`
	Systolic     *int      `db:"systolic" json:"systolic"`
	Diastolic    *int      `db:"diastolic" json:"diastolic"`
	HeartRate    *int      `db:"heart_rate" json:"heart_rate"`
	TemperatureC *float64  `db:"temperature_c" json:"temperature_c"`
	SpO2         *int      `db:"spo2" json:"spo2"`
	TakenAt      time.Time `db:"taken_at" json:"taken_at"`
}

type CreateVitalsRequest struct {
	PatientID    int64    `json:"patient_id" binding:"required,gt=0"`
	Systolic     *int     `json:"systolic" binding:"omitempty,min=40,max=260"`
	Diastolic    *int     `json:"diastolic" binding:"omitempty,min=20,max=160"`
	HeartRate    *int     `json:"heart_rate" binding:"omitempty,min=20,max=260"`
	TemperatureC *float64 `json:"temperature_c" binding:"omitempty,min=30,max=45"`
	SpO2         *int     `json:"spo2" binding:"omitempty,min=50,max=100"`
}

// OwnerTable names the tables an attachment may belong to.
type OwnerTable string

const (
	OwnerClinicalRecords OwnerTable = "clinical_records"
	OwnerAlerts          OwnerTable = "alerts"
)

func (o OwnerTable) Valid() bool {
	return o == OwnerClinicalRecords || o == OwnerAlerts
}

type Attachment struct {
	ID          int64      `db:"id" json:"id"`
	OwnerTable  OwnerTable `db:"owner_table" json:"owner_table"`
	OwnerID     int64      `db:"owner_id" json:"owner_id"`
	FileName    string     `db:"file_name" json:"file_name"`
	Mime        string     `db:"mime" json:"mime"`
	StoragePath string     `db:"storage_path" json:"storage_path"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	CreatedByID int64      `db:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
