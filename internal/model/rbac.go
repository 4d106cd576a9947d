package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of caller roles.
type Role string

const (
	RolePatient Role = "patient"
	RoleNurse   Role = "nurse"
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
)

var Roles = []Role{RolePatient, RoleNurse, RoleAdmin, RoleAuditor}

// ParseRole accepts the role names plus "user", the legacy name for patients.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient", "user":
		return RolePatient, nil
	case "nurse":
		return RoleNurse, nil
	case "admin":
		return RoleAdmin, nil
	case "auditor":
		return RoleAuditor, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil && r != "user"
}

// IsStaff reports whether the role acts as nursing staff (nurse-equivalent).
func (r Role) IsStaff() bool {
	return r == RoleNurse || r == RoleAdmin
}

// Permission names an operation guarded by role.
type Permission string

const (
	PermAlertCreate         Permission = "alert.create"
	PermAlertManage         Permission = "alert.manage"
	PermAlertReadAll        Permission = "alert.read_all"
	PermAppointmentBookSelf Permission = "appointment.book_self"
	PermAppointmentBookAny  Permission = "appointment.book_any"
	PermAppointmentManage   Permission = "appointment.manage"
	PermAppointmentReadAll  Permission = "appointment.read_all"
	PermAvailabilityManage  Permission = "availability.manage"
	PermRecordWrite         Permission = "record.write"
	PermRecordReadAny       Permission = "record.read_any"
	PermUserManage          Permission = "user.manage"
	PermCatalogManage       Permission = "catalog.manage"
	PermAuditRead           Permission = "audit.read"
	PermRealtimeSubscribe   Permission = "realtime.subscribe"
)

var permissions = map[Permission][]Role{
	PermAlertCreate:         {RolePatient, RoleNurse, RoleAdmin},
	PermAlertManage:         {RoleNurse, RoleAdmin},
	PermAlertReadAll:        {RoleNurse, RoleAdmin, RoleAuditor},
	PermAppointmentBookSelf: {RolePatient, RoleNurse, RoleAdmin},
	PermAppointmentBookAny:  {RoleNurse, RoleAdmin},
	PermAppointmentManage:   {RoleNurse, RoleAdmin},
	PermAppointmentReadAll:  {RoleNurse, RoleAdmin, RoleAuditor},
	PermAvailabilityManage:  {RoleAdmin},
	PermRecordWrite:         {RoleNurse, RoleAdmin},
	PermRecordReadAny:       {RoleNurse, RoleAdmin, RoleAuditor},
	PermUserManage:          {RoleAdmin},
	PermCatalogManage:       {RoleAdmin},
	PermAuditRead:           {RoleAdmin, RoleAuditor},
	PermRealtimeSubscribe:   {RoleNurse, RoleAdmin, RoleAuditor},
}

// Can reports whether role may perform the operation.
func Can(role Role, perm Permission) bool {
	for _, r := range permissions[perm] {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a Actor) Can(perm Permission) bool {
	return Can(a.Role, perm)
}
