package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/internal/model"
)

func TestWriteCSV(t *testing.T) {
	actor := int64(7)
	logs := []*model.AuditLog{{
		ID:         1,
		ActorID:    &actor,
		Action:     model.AuditActionCreate,
		EntityType: "alert",
		EntityID:   42,
		IPAddress:  "10.0.0.1",
		UserAgent:  "=HYPERLINK(\"http://evil\")",
		CreatedAt:  time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC),
	}, {
		ID:         2,
		Action:     "@sum",
		EntityType: "appointment",
		EntityID:   3,
		UserAgent:  "curl/8.0",
	}}

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, logs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "7", "create", "alert", "42", "10.0.0.1", "'=HYPERLINK(\"http://evil\")", "2030-03-04T09:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "'@sum", rows[2][2])
	assert.Equal(t, "curl/8.0", rows[2][6])
}

func TestCSVCell(t *testing.T) {
	for in, want := range map[string]string{
		"":          "",
		"view":      "view",
		"-1+2":      "'-1+2",
		"+cmd":      "'+cmd",
		"\tindent":  "'\tindent",
		"Mozilla/5": "Mozilla/5",
	} {
		assert.Equal(t, want, csvCell(in), in)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteCSVReportsWriteErrors(t *testing.T) {
	err := writeCSV(failingWriter{}, []*model.AuditLog{{ID: 1}})
	assert.EqualError(t, err, "connection reset")
}
