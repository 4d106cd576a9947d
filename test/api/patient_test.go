package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientProfileFlow(t *testing.T) {
	token, _ := registerPatient(t)

	resp := makeRequest("GET", "/me/profile", nil, token)
	assert.Equal(t, 404, resp.Code)

	resp = makeRequest("PUT", "/me/profile", map[string]interface{}{
		"first_name": "Ana",
		"last_name":  "Ruiz",
		"birth_date": "1990-04-01",
		"sex":        "F",
		"allergies":  "penicillin",
	}, token)
	require.True(t, resp.IsSuccess(), resp.Message)

	resp = makeRequest("GET", "/me/profile", nil, token)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, "Ana", resp.GetString("first_name"))
	assert.Equal(t, "penicillin", resp.GetString("allergies"))

	resp = makeRequest("PUT", "/me/profile", map[string]interface{}{
		"first_name": "Ana",
		"last_name":  "Ruiz",
		"birth_date": "2999-01-01",
	}, token)
	assert.Equal(t, 400, resp.Code)
}

func TestConsentFlow(t *testing.T) {
	token, _ := registerPatient(t)

	resp := makeRequest("POST", "/me/consents", map[string]string{"version": "2024-01"}, token)
	require.True(t, resp.IsSuccess(), resp.Message)

	resp = makeRequest("GET", "/me/consents", nil, token)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Contains(t, string(resp.RawData), "2024-01")
}
