package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func makeRequest(method, path string, body interface{}, token string) TestResponse {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return TestResponse{Status: "error", Message: fmt.Sprintf("failed to marshal request body: %v", err)}
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return TestResponse{Status: "error", Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return TestResponse{Status: "error", Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return TestResponse{Code: resp.StatusCode, Status: "error", Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	out := TestResponse{Code: resp.StatusCode, Status: apiResp.Status, Message: apiResp.Message, RawData: apiResp.Data}
	_ = json.Unmarshal(apiResp.Data, &out.Data)
	return out
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

// registerPatient signs up a fresh patient and returns its token and id.
func registerPatient(t *testing.T) (string, int64) {
	t.Helper()
	resp := makeRequest("POST", "/auth/register", map[string]string{
		"email":    uniqueEmail("patient"),
		"password": "password123",
	}, "")
	if !resp.IsSuccess() {
		t.Fatalf("failed to register patient: %s", resp.Message)
	}
	user, _ := resp.Data["user"].(map[string]interface{})
	id, _ := user["id"].(float64)
	return resp.GetString("access_token"), int64(id)
}

// createNurse creates a nurse with a Monday 09:00-12:00 availability block.
func createNurse(t *testing.T) int64 {
	t.Helper()
	resp := makeRequest("POST", "/users", map[string]string{
		"email":    uniqueEmail("nurse"),
		"password": "password123",
		"role":     "nurse",
	}, adminToken)
	if !resp.IsSuccess() {
		t.Fatalf("failed to create nurse: %s", resp.Message)
	}
	nurseID := resp.GetID("id")

	resp = makeRequest("POST", "/availability", map[string]interface{}{
		"staff_id":   nurseID,
		"weekday":    0,
		"start_time": "09:00",
		"end_time":   "12:00",
	}, adminToken)
	if !resp.IsSuccess() {
		t.Fatalf("failed to create availability: %s", resp.Message)
	}
	return nurseID
}
