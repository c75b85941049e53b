// Package checkout coordinates course purchases: order initiation against
// the coaching backend, the Razorpay gateway handoff, signature
// verification, and the session state machine tying them together.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/config"
	"github.com/upsc-portal-gateway/internal/models"
)

// ErrGatewayUnavailable indicates the gateway never became ready.
// Checkout aborts whole; there is no partial state to continue from.
var ErrGatewayUnavailable = errors.New("checkout: payment gateway unavailable")

// GatewayState is the lifecycle of the process-wide gateway handle
type GatewayState string

const (
	GatewayNotLoaded GatewayState = "not-loaded"
	GatewayLoading   GatewayState = "loading"
	GatewayReady     GatewayState = "ready"
	GatewayFailed    GatewayState = "failed"
)

// CallbackKind distinguishes the three gateway completion paths
type CallbackKind string

const (
	// CallbackSuccess carries the gateway's payment/order/signature ids
	CallbackSuccess CallbackKind = "success"
	// CallbackFailed is the gateway's explicit payment.failed event
	CallbackFailed CallbackKind = "payment.failed"
	// CallbackDismissed is the user closing the modal; resets to idle,
	// never to failed
	CallbackDismissed CallbackKind = "dismissed"
)

// CallbackEvent is a gateway completion relayed by the client. The payload
// is passed through unmodified; deciding success or failure is the
// verifier's job, never this bridge's.
type CallbackEvent struct {
	Kind    CallbackKind           `json:"kind"`
	Payload models.GatewayCallback `json:"payload"`
	Error   struct {
		Description string `json:"description"`
	} `json:"error"`
}

// Gateway is the process-wide Razorpay handle. Readiness (credentials
// present, checkout script reachable) is established at most once no
// matter how many checkouts run concurrently; every caller waits on the
// same in-flight attempt, and a failed attempt stays failed.
type Gateway struct {
	cfg    config.RazorpayConfig
	client *http.Client
	log    zerolog.Logger

	mu      sync.Mutex
	state   GatewayState
	initErr error
	done    chan struct{}
}

// NewGateway creates the gateway handle in the not-loaded state
func NewGateway(cfg config.RazorpayConfig, log zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.ScriptProbe},
		log:    log.With().Str("component", "gateway").Logger(),
		state:  GatewayNotLoaded,
	}
}

// Ensure makes the gateway ready, performing the one-time readiness check
// if nobody has yet. Concurrent callers share a single attempt.
func (g *Gateway) Ensure(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case GatewayReady:
		g.mu.Unlock()
		return nil
	case GatewayFailed:
		err := g.initErr
		g.mu.Unlock()
		return err
	case GatewayLoading:
		done := g.done
		g.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		g.mu.Lock()
		err := g.initErr
		g.mu.Unlock()
		return err
	}

	g.state = GatewayLoading
	g.done = make(chan struct{})
	g.mu.Unlock()

	err := g.probe(ctx)

	g.mu.Lock()
	if err != nil {
		g.state = GatewayFailed
		g.initErr = err
		g.log.Error().Err(err).Msg("Gateway initialization failed")
	} else {
		g.state = GatewayReady
		g.log.Info().Msg("Gateway ready")
	}
	close(g.done)
	g.mu.Unlock()

	return err
}

// State returns the current gateway lifecycle state
func (g *Gateway) State() GatewayState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// probe checks credentials and that the hosted checkout script answers
func (g *Gateway) probe(ctx context.Context) error {
	if g.cfg.KeyID == "" {
		return fmt.Errorf("%w: RAZORPAY_KEY_ID not configured", ErrGatewayUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.cfg.ScriptURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: checkout script unreachable: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: checkout script returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	return nil
}

// Options builds the option set for opening the gateway modal against the
// given order.
func (g *Gateway) Options(form models.CheckoutForm, order *models.OrderData, description string) models.CheckoutOptions {
	return models.CheckoutOptions{
		Key:         g.cfg.KeyID,
		Amount:      order.RazorpayOrder.Amount,
		Currency:    order.RazorpayOrder.Currency,
		Name:        g.cfg.BrandName,
		Description: description,
		OrderID:     order.RazorpayOrder.ID,
		Prefill: models.CheckoutPrefill{
			Name:    form.StudentName,
			Email:   form.Email,
			Contact: form.Mobile,
		},
		Theme: models.CheckoutTheme{Color: g.cfg.ThemeColor},
	}
}
