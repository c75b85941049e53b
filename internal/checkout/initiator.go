package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

var (
	// ErrValidation marks form input rejected before any network call
	ErrValidation = errors.New("checkout: invalid form input")
	// ErrInvalidResponse marks an initiation response missing a required
	// sub-object. That is a backend contract violation, not a transient
	// failure, so it is never retried.
	ErrInvalidResponse = errors.New("checkout: invalid initiation response")
)

var mobileRegex = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateForm checks the client-side preconditions: all contact fields
// non-empty and a 10-digit mobile number.
func ValidateForm(form models.CheckoutForm) error {
	if strings.TrimSpace(form.StudentName) == "" {
		return fmt.Errorf("%w: studentName is required", ErrValidation)
	}
	if strings.TrimSpace(form.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if strings.TrimSpace(form.Mobile) == "" {
		return fmt.Errorf("%w: mobile is required", ErrValidation)
	}
	if !mobileRegex.MatchString(form.Mobile) {
		return fmt.Errorf("%w: mobile must be 10 digits", ErrValidation)
	}
	if form.CourseID == "" {
		return fmt.Errorf("%w: courseId is required", ErrValidation)
	}
	return nil
}

// Initiator requests a gateway order for a course purchase. It does not
// itself talk to the gateway.
type Initiator struct {
	api upstream.API
	log zerolog.Logger
}

// NewInitiator creates an initiator
func NewInitiator(api upstream.API, log zerolog.Logger) *Initiator {
	return &Initiator{
		api: api,
		log: log.With().Str("component", "initiator").Logger(),
	}
}

// Initiate validates the form, calls the backend create-order endpoint,
// and checks that both the payment record and the gateway order came back.
func (i *Initiator) Initiate(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error) {
	if err := ValidateForm(form); err != nil {
		return nil, err
	}

	order, err := i.api.InitiatePayment(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}

	if order.Payment.ID == "" {
		i.log.Error().Str("course_id", form.CourseID).Msg("Initiation response missing payment record")
		return nil, fmt.Errorf("%w: missing payment record", ErrInvalidResponse)
	}
	if order.RazorpayOrder.ID == "" {
		i.log.Error().Str("course_id", form.CourseID).Msg("Initiation response missing razorpayOrder")
		return nil, fmt.Errorf("%w: missing razorpayOrder", ErrInvalidResponse)
	}

	return order, nil
}
