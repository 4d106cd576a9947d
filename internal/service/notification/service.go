package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/email"
	"github.com/unihealth/care-api/pkg/messaging"
	"github.com/unihealth/care-api/pkg/metrics"
)

const (
	ChannelAlerts = "alerts"

	EventAlertCreated  = "alert_created"
	EventAlertAssigned = "alert_assigned"
	EventAlertStatus   = "alert_status"
	EventAlertEvent    = "alert_event"

	emailTimeout = 30 * time.Second
)

// Notifier announces committed changes. Delivery is best effort: failures
// are logged and counted, never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{})
}

type Service struct {
	broker  messaging.Broker
	email   email.Service
	onCall  string
	metrics *metrics.Metrics
}

// NewService publishes to broker and, when onCall is set, emails it on every new alert.
func NewService(broker messaging.Broker, emailSvc email.Service, onCall string, m *metrics.Metrics) *Service {
	if emailSvc == nil {
		emailSvc = email.Noop{}
	}
	return &Service{
		broker:  broker,
		email:   emailSvc,
		onCall:  onCall,
		metrics: m,
	}
}

func (s *Service) Notify(ctx context.Context, event string, payload map[string]interface{}) {
	msg := messaging.Message{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	err := s.broker.Publish(ctx, ChannelAlerts, msg)
	s.metrics.Notification(event, err)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", event).Interface("payload", payload).Msg("failed to publish notification")
	}

	if event == EventAlertCreated && s.onCall != "" {
		go s.sendEmail(context.WithoutCancel(ctx), payload)
	}
}

func (s *Service) sendEmail(ctx context.Context, payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()

	subject := fmt.Sprintf("New alert #%v", payload["id"])
	body := fmt.Sprintf("A new alert was raised.\n\nid: %v\nsource: %v\ntype: %v\n", payload["id"], payload["source"], payload["alert_type_code"])
	if err := s.email.Send(ctx, s.onCall, subject, body); err != nil {
		log.Ctx(ctx).Warn().Err(err).Interface("alert_id", payload["id"]).Msg("failed to email on-call staff")
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, string, map[string]interface{}) {}
