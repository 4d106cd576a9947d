package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("user")
	assert.NoError(t, err)
	assert.Equal(t, RolePatient, r)

	r, err = ParseRole(" Nurse ")
	assert.NoError(t, err)
	assert.Equal(t, RoleNurse, r)

	_, err = ParseRole("doctor")
	assert.Error(t, err)

	assert.False(t, Role("user").Valid())
	assert.True(t, RoleAuditor.Valid())
}

func TestCan(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RolePatient, PermAlertCreate, true},
		{RolePatient, PermAlertManage, false},
		{RolePatient, PermAppointmentBookAny, false},
		{RoleNurse, PermAppointmentBookAny, true},
		{RoleNurse, PermAvailabilityManage, false},
		{RoleAdmin, PermAvailabilityManage, true},
		{RoleAuditor, PermRecordReadAny, true},
		{RoleAuditor, PermRecordWrite, false},
		{RoleAuditor, PermAlertManage, false},
		{RoleAuditor, PermAuditRead, true},
		{RoleNurse, PermAuditRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.perm))
		})
	}
}

func TestIsStaff(t *testing.T) {
	assert.True(t, RoleNurse.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RoleAuditor.IsStaff())
	assert.False(t, RolePatient.IsStaff())
}
