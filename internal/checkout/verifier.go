package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// ErrVerificationFailed marks a verify response whose normalized record
// has no identifier. Distinct from a transport failure: the backend
// answered and the answer is not a confirmed payment.
var ErrVerificationFailed = errors.New("checkout: payment verification failed")

// extractor pulls a candidate payment record out of one envelope shape,
// reporting whether the shape matched structurally.
type extractor func(raw []byte) (*models.PaymentRecord, bool)

// Normalize tries the known verify-response envelope shapes in priority
// order: data.payment, top-level payment, data itself (only when it lacks
// a nested payment key), then the raw body. The first structural match
// wins; returns nil when the body is not a JSON object at all.
func Normalize(raw []byte) *models.PaymentRecord {
	extractors := []extractor{
		extractDataPayment,
		extractTopLevelPayment,
		extractDataBody,
		extractRawBody,
	}
	for _, ex := range extractors {
		if rec, ok := ex(raw); ok {
			return rec
		}
	}
	return nil
}

func objectKeys(raw []byte) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func decodeRecord(raw []byte) (*models.PaymentRecord, bool) {
	if _, ok := objectKeys(raw); !ok {
		return nil, false
	}
	var rec models.PaymentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func extractDataPayment(raw []byte) (*models.PaymentRecord, bool) {
	top, ok := objectKeys(raw)
	if !ok {
		return nil, false
	}
	data, ok := top["data"]
	if !ok {
		return nil, false
	}
	inner, ok := objectKeys(data)
	if !ok {
		return nil, false
	}
	payment, ok := inner["payment"]
	if !ok {
		return nil, false
	}
	return decodeRecord(payment)
}

func extractTopLevelPayment(raw []byte) (*models.PaymentRecord, bool) {
	top, ok := objectKeys(raw)
	if !ok {
		return nil, false
	}
	payment, ok := top["payment"]
	if !ok {
		return nil, false
	}
	return decodeRecord(payment)
}

func extractDataBody(raw []byte) (*models.PaymentRecord, bool) {
	top, ok := objectKeys(raw)
	if !ok {
		return nil, false
	}
	data, ok := top["data"]
	if !ok {
		return nil, false
	}
	inner, ok := objectKeys(data)
	if !ok {
		return nil, false
	}
	// data holding a nested payment key is an envelope, not a payment
	if _, nested := inner["payment"]; nested {
		return nil, false
	}
	return decodeRecord(data)
}

func extractRawBody(raw []byte) (*models.PaymentRecord, bool) {
	return decodeRecord(raw)
}

// Verifier confirms gateway callback authenticity with the backend and
// normalizes whatever envelope the backend answers with.
type Verifier struct {
	api upstream.API
	log zerolog.Logger
}

// NewVerifier creates a verifier
func NewVerifier(api upstream.API, log zerolog.Logger) *Verifier {
	return &Verifier{
		api: api,
		log: log.With().Str("component", "verifier").Logger(),
	}
}

// Verify submits the gateway identifiers for signature verification and
// returns the normalized payment record. Gaps the backend did not echo
// back (payer name/contact, gateway ids) are filled from the
// client-submitted values; this is presentation convenience only, the
// success decision is the backend's alone.
func (v *Verifier) Verify(ctx context.Context, cb models.GatewayCallback, form models.CheckoutForm) (*models.PaymentRecord, error) {
	raw, err := v.api.VerifyPayment(ctx, cb)
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	rec := Normalize(raw)
	if rec == nil || rec.ID == "" {
		v.log.Warn().
			Str("razorpay_order_id", cb.RazorpayOrderID).
			Msg("Verify response did not normalize to a confirmed payment")
		return nil, ErrVerificationFailed
	}

	if rec.StudentName == "" {
		rec.StudentName = form.StudentName
	}
	if rec.Mobile == "" {
		rec.Mobile = form.Mobile
	}
	if rec.Email == "" {
		rec.Email = form.Email
	}
	if rec.CourseID == "" {
		rec.CourseID = form.CourseID
	}
	if rec.RazorpayPaymentID == "" {
		rec.RazorpayPaymentID = cb.RazorpayPaymentID
	}
	if rec.RazorpayOrderID == "" {
		rec.RazorpayOrderID = cb.RazorpayOrderID
	}

	return rec, nil
}
