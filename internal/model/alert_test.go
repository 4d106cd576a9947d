package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/unihealth/care-api/pkg/errors"
)

var now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func pendingAlert() *Alert {
	patient := int64(7)
	return &Alert{ID: 1, PatientID: &patient, Status: AlertStatusPending, Source: AlertSourceApp}
}

func TestNewAlertDefaultsSource(t *testing.T) {
	a, ev := NewAlert(Actor{ID: 7, Role: RolePatient}, CreateAlertRequest{AlertTypeCode: "fall"}, now)

	assert.Equal(t, AlertStatusPending, a.Status)
	assert.Equal(t, AlertSourceApp, a.Source)
	require.NotNil(t, a.PatientID)
	assert.Equal(t, int64(7), *a.PatientID)
	require.NotNil(t, a.AlertTypeCode)
	assert.Equal(t, "fall", *a.AlertTypeCode)
	assert.Equal(t, AlertEventCreated, ev.Type)
}

func TestAssignMovesPendingToInProgress(t *testing.T) {
	a := pendingAlert()

	events := a.Assign(2, 3, now)

	require.Len(t, events, 2)
	assert.Equal(t, AlertEventAssigned, events[0].Type)
	assert.Equal(t, AlertEventStatusChanged, events[1].Type)
	assert.Equal(t, AlertStatusInProgress, a.Status)
	assert.Equal(t, int64(3), *a.AssignedToID)

	events = a.Assign(2, 4, now)
	require.Len(t, events, 1)
	assert.Equal(t, int64(4), *a.AssignedToID)
}

func TestSetStatus(t *testing.T) {
	t.Run("resolve sets resolved_at and assignee", func(t *testing.T) {
		a := pendingAlert()
		events, err := a.SetStatus(9, AlertStatusResolved, now)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "pending", events[0].Detail["from"])
		assert.Equal(t, AlertStatusResolved, a.Status)
		require.NotNil(t, a.ResolvedAt)
		assert.Equal(t, now, *a.ResolvedAt)
		assert.Equal(t, int64(9), *a.AssignedToID)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		a := pendingAlert()
		_, err := a.SetStatus(9, AlertStatusInProgress, now)
		require.NoError(t, err)

		events, err := a.SetStatus(9, AlertStatusInProgress, now)
		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		a := pendingAlert()
		_, err := a.SetStatus(9, AlertStatusResolved, now)
		require.NoError(t, err)

		_, err = a.SetStatus(9, AlertStatusInProgress, now)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("pending is not a target", func(t *testing.T) {
		a := pendingAlert()
		a.Status = AlertStatusInProgress
		_, err := a.SetStatus(9, AlertStatusPending, now)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("keeps an existing assignee", func(t *testing.T) {
		a := pendingAlert()
		a.Assign(2, 3, now)
		_, err := a.SetStatus(9, AlertStatusResolved, now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), *a.AssignedToID)
	})
}

func TestNoteRejectsSystemEvents(t *testing.T) {
	a := pendingAlert()

	ev, err := a.Note(2, AlertEventNote, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.AlertID)
	assert.NotNil(t, ev.Detail)
	assert.Equal(t, AlertStatusPending, a.Status)

	_, err = a.Note(2, AlertEventCreated, nil, now)
	assert.Error(t, err)
}

func TestAlertVisibleTo(t *testing.T) {
	a := pendingAlert()

	assert.True(t, a.VisibleTo(Actor{ID: 7, Role: RolePatient}))
	assert.False(t, a.VisibleTo(Actor{ID: 8, Role: RolePatient}))
	assert.True(t, a.VisibleTo(Actor{ID: 8, Role: RoleAuditor}))
}
