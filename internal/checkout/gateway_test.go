package checkout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/checkout"
	"github.com/upsc-portal-gateway/internal/config"
	"github.com/upsc-portal-gateway/internal/models"
)

func gatewayConfig(scriptURL string) config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:       "rzp_test_key",
		ScriptURL:   scriptURL,
		BrandName:   "UPSC Prep Portal",
		ThemeColor:  "#b91c1c",
		ScriptProbe: 2 * time.Second,
	}
}

func TestGatewayEnsureProbesOnce(t *testing.T) {
	var probes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := checkout.NewGateway(gatewayConfig(srv.URL), zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Ensure(context.Background()); err != nil {
				t.Errorf("Ensure failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := probes.Load(); got != 1 {
		t.Errorf("expected exactly one probe regardless of callers, got %d", got)
	}
	if g.State() != checkout.GatewayReady {
		t.Errorf("expected ready state, got %s", g.State())
	}
}

func TestGatewayFailureIsSticky(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := checkout.NewGateway(gatewayConfig(srv.URL), zerolog.Nop())

	if err := g.Ensure(context.Background()); err == nil {
		t.Fatal("expected probe failure")
	}
	if g.State() != checkout.GatewayFailed {
		t.Fatalf("expected failed state, got %s", g.State())
	}

	// A later caller gets the same fatal error without a new attempt
	if err := g.Ensure(context.Background()); err == nil {
		t.Error("failed gateway must stay failed")
	}
}

func TestGatewayRequiresKey(t *testing.T) {
	cfg := gatewayConfig("https://checkout.razorpay.com/v1/checkout.js")
	cfg.KeyID = ""
	g := checkout.NewGateway(cfg, zerolog.Nop())

	if err := g.Ensure(context.Background()); err == nil {
		t.Error("missing key must fail gateway initialization")
	}
}

func TestGatewayOptions(t *testing.T) {
	g := checkout.NewGateway(gatewayConfig("unused"), zerolog.Nop())

	form := models.CheckoutForm{
		StudentName: "Asha Rao",
		Mobile:      "9876543210",
		Email:       "asha@example.com",
	}
	order := &models.OrderData{
		Payment:       models.PaymentRecord{ID: "p1"},
		RazorpayOrder: models.RazorpayOrder{ID: "order_1", Amount: 49900, Currency: "INR"},
	}

	opts := g.Options(form, order, "Course enrollment")

	if opts.Key != "rzp_test_key" || opts.OrderID != "order_1" {
		t.Errorf("unexpected gateway identity: %+v", opts)
	}
	if opts.Amount != 49900 || opts.Currency != "INR" {
		t.Errorf("order amount must pass through unchanged: %+v", opts)
	}
	if opts.Prefill.Contact != "9876543210" || opts.Prefill.Name != "Asha Rao" {
		t.Errorf("prefill must carry the form contact details: %+v", opts.Prefill)
	}
}
