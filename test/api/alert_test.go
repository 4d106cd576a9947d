package api_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLifecycle(t *testing.T) {
	token, _ := registerPatient(t)

	resp := makeRequest("POST", "/alerts", map[string]interface{}{
		"description": "patient fell in room 12",
		"source":      "app",
		"latitude":    4.6,
		"longitude":   -74.08,
	}, token)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, "pending", resp.GetString("status"))
	alertID := resp.GetID("id")

	resp = makeRequest("POST", fmt.Sprintf("/alerts/%d/status", alertID), map[string]string{"status": "resolved"}, token)
	assert.Equal(t, 403, resp.Code)

	resp = makeRequest("POST", fmt.Sprintf("/alerts/%d/assign", alertID), nil, adminToken)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, "in_progress", resp.GetString("status"))

	resp = makeRequest("POST", fmt.Sprintf("/alerts/%d/status", alertID), map[string]string{"status": "resolved"}, adminToken)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.NotEmpty(t, resp.GetString("resolved_at"))

	resp = makeRequest("POST", fmt.Sprintf("/alerts/%d/status", alertID), map[string]string{"status": "in_progress"}, adminToken)
	assert.Equal(t, 409, resp.Code)

	resp = makeRequest("GET", fmt.Sprintf("/alerts/%d", alertID), nil, token)
	assert.True(t, resp.IsSuccess(), resp.Message)
}
