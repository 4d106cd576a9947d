package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/pkg/messaging"
)

type sentMail struct {
	to, subject string
}

type recordingEmail struct {
	sent chan sentMail
}

func (r *recordingEmail) Send(_ context.Context, to, subject, _ string) error {
	r.sent <- sentMail{to: to, subject: subject}
	return nil
}

type failingBroker struct {
	messaging.Broker
}

func (failingBroker) Publish(context.Context, string, interface{}) error {
	return errors.New("redis down")
}

func TestNotifyPublishesOnAlertsChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := messaging.NewMemoryBroker()
	sub, err := broker.Subscribe(ctx, ChannelAlerts)
	require.NoError(t, err)

	mail := &recordingEmail{sent: make(chan sentMail, 1)}
	svc := NewService(broker, mail, "oncall@example.com", nil)
	svc.Notify(ctx, EventAlertCreated, map[string]interface{}{"id": 7})

	select {
	case raw := <-sub:
		var msg struct {
			Event   string                 `json:"event"`
			Payload map[string]interface{} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventAlertCreated, msg.Event)
		assert.EqualValues(t, 7, msg.Payload["id"])
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}

	select {
	case m := <-mail.sent:
		assert.Equal(t, "oncall@example.com", m.to)
		assert.Equal(t, "New alert #7", m.subject)
	case <-time.After(time.Second):
		t.Fatal("no email sent")
	}
}

func TestNotifyEmailsOnlyNewAlerts(t *testing.T) {
	mail := &recordingEmail{sent: make(chan sentMail, 1)}
	svc := NewService(messaging.NewMemoryBroker(), mail, "oncall@example.com", nil)

	svc.Notify(context.Background(), EventAlertStatus, map[string]interface{}{"id": 1, "status": "resolved"})

	select {
	case <-mail.sent:
		t.Fatal("status changes must not email")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifySwallowsPublishFailure(t *testing.T) {
	svc := NewService(failingBroker{}, nil, "", nil)
	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), EventAlertAssigned, map[string]interface{}{"id": 1})
	})
}
