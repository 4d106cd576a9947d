package model

import "time"

type AuditLog struct {
	ID         int64     `json:"id" db:"id"`
	ActorID    *int64    `json:"actor_id" db:"actor_id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   int64     `json:"entity_id" db:"entity_id"`
	Metadata   JSONMap   `json:"metadata" db:"metadata"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate = "create"
	AuditActionRead   = "read"
	AuditActionUpdate = "update"
	AuditActionLogin  = "login"

	// Entity types
	AuditEntityUser           = "user"
	AuditEntityProfile        = "patient_profile"
	AuditEntityClinicalRecord = "clinical_record"
	AuditEntityVitals         = "vital_sign"
	AuditEntityAttachment     = "attachment"
	AuditEntityAppointment    = "appointment"
	AuditEntityAlert          = "alert"
)

type AuditFilter struct {
	ActorID    *int64 `form:"actor_id"`
	EntityType string `form:"entity_type"`
	Pagination
}
