package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/events"
	"github.com/upsc-portal-gateway/internal/metrics"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/store"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// ErrSessionNotFound indicates an unknown checkout session id
var ErrSessionNotFound = errors.New("checkout: session not found")

// Service owns checkout sessions end to end: initiation, gateway handoff,
// callback handling, verification, and the resulting state machine
// idle -> processing -> success | failed. A session reaches success only
// when both the initiation produced a complete order AND the backend
// verified the gateway signature; a gateway-reported success alone never
// flips a session to success.
//
// Sessions live in memory; every transition is mirrored to the Postgres
// audit store best-effort, since a store outage must not break a checkout
// the backend has already confirmed. The store also serves as the recovery
// path: a session unknown to this process is rehydrated from the audit
// trail before a lookup reports not-found.
//
// All session field mutation happens under the service mutex, and every
// session handed out of the service is a copy, so readers never observe a
// transition half-applied.
type Service struct {
	api       upstream.API
	initiator *Initiator
	gateway   *Gateway
	verifier  *Verifier
	repo      store.SessionRepository
	publisher *events.Publisher
	log       zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*models.PaymentSession
}

// NewService wires the checkout flow
func NewService(api upstream.API, gateway *Gateway, repo store.SessionRepository, publisher *events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		api:       api,
		initiator: NewInitiator(api, log),
		gateway:   gateway,
		verifier:  NewVerifier(api, log),
		repo:      repo,
		publisher: publisher,
		log:       log.With().Str("component", "checkout").Logger(),
		sessions:  make(map[string]*models.PaymentSession),
	}
}

// Start validates the form, creates the backend order, readies the
// gateway, and returns the session with the options for opening the
// gateway modal. A contract-violating initiation response fails the
// session before the gateway is ever touched.
func (s *Service) Start(ctx context.Context, form models.CheckoutForm) (*models.PaymentSession, *models.CheckoutOptions, error) {
	now := time.Now()
	session := &models.PaymentSession{
		ID:        uuid.New().String(),
		Form:      form,
		State:     models.StateProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	order, err := s.initiator.Initiate(ctx, form)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			// Rejected before any network call; nothing to record
			return nil, nil, err
		}
		return s.fail(ctx, session, "order creation failed", "initiation_failed", true), nil, err
	}
	session.OrderData = order

	if err := s.gateway.Ensure(ctx); err != nil {
		return s.fail(ctx, session, "payment gateway unavailable", "gateway_failed", true), nil, err
	}

	opts := s.gateway.Options(form, order, "Course enrollment")

	s.put(session)
	snap := s.snapshot(session)
	s.audit(ctx, snap, true)
	s.publish(events.TypePaymentInitiated, snap)

	s.log.Info().
		Str("session_id", session.ID).
		Str("order_id", order.RazorpayOrder.ID).
		Str("course_id", form.CourseID).
		Msg("Checkout session started")

	return snap, &opts, nil
}

// HandleCallback applies a gateway completion event to the session.
// Success payloads go through backend verification; payment.failed moves
// the session to failed; a dismissal resets it to idle.
func (s *Service) HandleCallback(ctx context.Context, sessionID string, ev CallbackEvent) (*models.PaymentSession, error) {
	session, err := s.lookup(ctx, sessionID, ev.Payload.RazorpayOrderID)
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case CallbackDismissed:
		snap := s.transition(session, func(ps *models.PaymentSession) {
			ps.State = models.StateIdle
			ps.FailureReason = ""
		})
		metrics.PaymentOutcomesTotal.WithLabelValues("dismissed").Inc()
		s.audit(ctx, snap, false)
		s.log.Info().Str("session_id", snap.ID).Msg("Checkout dismissed by user")
		return snap, nil

	case CallbackFailed:
		reason := ev.Error.Description
		if reason == "" {
			reason = "payment failed at gateway"
		}
		snap := s.transition(session, func(ps *models.PaymentSession) {
			ps.State = models.StateFailed
			ps.FailureReason = reason
		})
		metrics.PaymentOutcomesTotal.WithLabelValues("gateway_failed").Inc()
		s.audit(ctx, snap, false)
		s.publish(events.TypePaymentFailed, snap)
		s.log.Warn().Str("session_id", snap.ID).Str("reason", reason).Msg("Gateway reported payment failure")
		return snap, nil

	case CallbackSuccess:
		order := session.OrderData
		if order == nil || order.RazorpayOrder.ID == "" {
			return s.fail(ctx, session, "no order to verify against", "verification_failed", false), ErrVerificationFailed
		}

		record, err := s.verifier.Verify(ctx, ev.Payload, session.Form)
		if err != nil {
			return s.fail(ctx, session, "payment verification failed", "verification_failed", false), err
		}

		if record.Amount == 0 {
			record.Amount = float64(order.RazorpayOrder.Amount) / 100
		}
		if record.Currency == "" {
			record.Currency = order.RazorpayOrder.Currency
		}

		snap := s.transition(session, func(ps *models.PaymentSession) {
			ps.VerifiedPayment = record
			ps.State = models.StateSuccess
			ps.FailureReason = ""
		})
		metrics.PaymentOutcomesTotal.WithLabelValues("success").Inc()
		s.audit(ctx, snap, false)
		s.publish(events.TypePaymentVerified, snap)
		s.log.Info().
			Str("session_id", snap.ID).
			Str("payment_id", record.ID).
			Msg("Payment verified")
		return snap, nil

	default:
		return s.snapshot(session), fmt.Errorf("unknown callback kind %q", ev.Kind)
	}
}

// Get returns a copy of the session, falling back to the audit store for
// sessions this process does not hold in memory.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.PaymentSession, bool) {
	if session, ok := s.get(sessionID); ok {
		return s.snapshot(session), true
	}
	if session := s.rehydrate(ctx, sessionID, ""); session != nil {
		return s.snapshot(session), true
	}
	return nil, false
}

// Recent returns the latest audited sessions from the store
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.PaymentSession, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.Recent(ctx, limit)
}

// Courses lists the purchasable course catalog from the backend
func (s *Service) Courses(ctx context.Context, page, limit int) ([]models.Course, error) {
	return s.api.GetCourses(ctx, page, limit)
}

// BackendReceipt fetches the backend's receipt document for a payment
func (s *Service) BackendReceipt(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return s.api.GetReceipt(ctx, paymentID)
}

func (s *Service) fail(ctx context.Context, session *models.PaymentSession, reason, outcome string, firstWrite bool) *models.PaymentSession {
	s.put(session)
	snap := s.transition(session, func(ps *models.PaymentSession) {
		ps.State = models.StateFailed
		ps.FailureReason = reason
	})
	metrics.PaymentOutcomesTotal.WithLabelValues(outcome).Inc()
	s.audit(ctx, snap, firstWrite)
	s.publish(events.TypePaymentFailed, snap)
	return snap
}

// lookup finds the session for a callback, recovering from the audit
// store by session id or, failing that, by gateway order id.
func (s *Service) lookup(ctx context.Context, sessionID, orderID string) (*models.PaymentSession, error) {
	if session, ok := s.get(sessionID); ok {
		return session, nil
	}
	if session := s.rehydrate(ctx, sessionID, orderID); session != nil {
		return session, nil
	}
	return nil, ErrSessionNotFound
}

// rehydrate restores a session from the audit store, as after a restart
func (s *Service) rehydrate(ctx context.Context, sessionID, orderID string) *models.PaymentSession {
	if s.repo == nil {
		return nil
	}

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("Audit store lookup failed")
		return nil
	}
	if session == nil && orderID != "" {
		session, err = s.repo.GetByOrderID(ctx, orderID)
		if err != nil {
			s.log.Error().Err(err).Str("order_id", orderID).Msg("Audit store lookup failed")
			return nil
		}
	}
	if session == nil {
		return nil
	}

	s.put(session)
	s.log.Info().Str("session_id", session.ID).Msg("Session rehydrated from audit store")
	return session
}

// transition applies a state change under the lock and returns a copy for
// callers to hand out.
func (s *Service) transition(session *models.PaymentSession, apply func(*models.PaymentSession)) *models.PaymentSession {
	s.mu.Lock()
	apply(session)
	session.UpdatedAt = time.Now()
	copied := *session
	s.mu.Unlock()
	return &copied
}

// snapshot copies a session under the lock
func (s *Service) snapshot(session *models.PaymentSession) *models.PaymentSession {
	s.mu.RLock()
	copied := *session
	s.mu.RUnlock()
	return &copied
}

func (s *Service) put(session *models.PaymentSession) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
}

func (s *Service) get(id string) (*models.PaymentSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// audit mirrors the session to Postgres. Failures are logged only.
func (s *Service) audit(ctx context.Context, session *models.PaymentSession, create bool) {
	if s.repo == nil {
		return
	}
	var err error
	if create {
		err = s.repo.Create(ctx, session)
	} else {
		err = s.repo.UpdateState(ctx, session)
	}
	if err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("Failed to audit session")
	}
}

func (s *Service) publish(eventType string, session *models.PaymentSession) {
	if err := s.publisher.Publish(eventType, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to publish payment event")
	}
}
