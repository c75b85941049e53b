// Package events publishes payment lifecycle events to NATS. Publishing
// is optional plumbing for downstream consumers (CRM, notifications); a
// nil publisher is valid and drops everything.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/models"
)

// Event types emitted over the payments subject
const (
	TypePaymentInitiated = "payment.initiated"
	TypePaymentVerified  = "payment.verified"
	TypePaymentFailed    = "payment.failed"
)

// PaymentEvent is the wire message for one session transition
type PaymentEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"sessionId"`
	State     models.SessionState `json:"state"`
	CourseID  string              `json:"courseId,omitempty"`
	OrderID   string              `json:"orderId,omitempty"`
	PaymentID string              `json:"paymentId,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Source    string              `json:"source"`
}

// Publisher publishes payment events to a NATS subject
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewPublisher connects to NATS. An empty URL disables publishing and
// returns a nil publisher, which every method tolerates.
func NewPublisher(url, subject string, log zerolog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		conn:    nc,
		subject: subject,
		log:     log.With().Str("component", "events").Logger(),
	}, nil
}

// Publish sends one event. Failures are the caller's to log; they must
// never fail the request that triggered them.
func (p *Publisher) Publish(eventType string, session *models.PaymentSession) error {
	if p == nil {
		return nil
	}

	event := PaymentEvent{
		Type:      eventType,
		SessionID: session.ID,
		State:     session.State,
		CourseID:  session.Form.CourseID,
		Reason:    session.FailureReason,
		Timestamp: time.Now(),
		Source:    "upsc-portal-gateway",
	}
	if session.OrderData != nil {
		event.OrderID = session.OrderData.RazorpayOrder.ID
		event.PaymentID = session.OrderData.Payment.ID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}

	p.log.Debug().Str("type", eventType).Str("session_id", session.ID).Msg("Published payment event")
	return nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
