package api_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monday = "2030-03-04"

func TestSlotsAndBookingConflict(t *testing.T) {
	nurseID := createNurse(t)
	token, patientID := registerPatient(t)

	resp := makeRequest("GET", fmt.Sprintf("/slots?staff_id=%d&date=%s", nurseID, monday), nil, token)
	require.True(t, resp.IsSuccess(), resp.Message)
	var slots []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.RawData, &slots))
	assert.Len(t, slots, 6)

	booking := map[string]interface{}{
		"patient_id":        patientID,
		"staff_id":          nurseID,
		"service_type_code": "checkup",
		"start":             monday + "T14:00:00Z",
		"end":               monday + "T14:30:00Z",
	}
	resp = makeRequest("POST", "/appointments", booking, token)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, "requested", resp.GetString("status"))
	appointmentID := resp.GetID("id")

	booking["start"], booking["end"] = monday+"T14:15:00Z", monday+"T14:45:00Z"
	resp = makeRequest("POST", "/appointments", booking, token)
	assert.Equal(t, 409, resp.Code)

	resp = makeRequest("PATCH", fmt.Sprintf("/appointments/%d/status", appointmentID),
		map[string]string{"status": "cancelled"}, token)
	require.True(t, resp.IsSuccess(), resp.Message)

	resp = makeRequest("POST", "/appointments", booking, token)
	assert.True(t, resp.IsSuccess(), resp.Message)
}
