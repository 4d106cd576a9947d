package model

import "time"

// PatientProfile is the 1:1 demographic record of a user.
type PatientProfile struct {
	UserID           int64     `json:"user_id" db:"user_id"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	BirthDate        *Date     `json:"birth_date" db:"birth_date"`
	Sex              *string   `json:"sex" db:"sex"`
	EmergencyContact *string   `json:"emergency_contact" db:"emergency_contact"`
	Allergies        *string   `json:"allergies" db:"allergies"`
	MedicalHistory   *string   `json:"medical_history" db:"medical_history"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type ProfileRequest struct {
	FirstName        string  `json:"first_name" binding:"required,max=100"`
	LastName         string  `json:"last_name" binding:"required,max=100"`
	BirthDate        string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02,notfuture"`
	Sex              string  `json:"sex" binding:"sex"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=100"`
	Allergies        *string `json:"allergies"`
	MedicalHistory   *string `json:"medical_history"`
}

// Consent records acceptance of a terms version.
type Consent struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"-" db:"user_id"`
	Version    string    `json:"version" db:"version"`
	AcceptedAt time.Time `json:"accepted_at" db:"accepted_at"`
	IP         *string   `json:"ip" db:"ip"`
}

type ConsentRequest struct {
	Version string `json:"version" binding:"required,max=20"`
}
