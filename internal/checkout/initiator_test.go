package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/checkout"
	"github.com/upsc-portal-gateway/internal/mocks"
	"github.com/upsc-portal-gateway/internal/models"
)

func validForm() models.CheckoutForm {
	return models.CheckoutForm{
		StudentName:   "Asha Rao",
		Mobile:        "9876543210",
		Email:         "asha@example.com",
		CourseID:      "course-42",
		PaymentMethod: "online",
	}
}

func TestValidateForm(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.CheckoutForm)
	}{
		{"missing name", func(f *models.CheckoutForm) { f.StudentName = "  " }},
		{"missing email", func(f *models.CheckoutForm) { f.Email = "" }},
		{"missing mobile", func(f *models.CheckoutForm) { f.Mobile = "" }},
		{"short mobile", func(f *models.CheckoutForm) { f.Mobile = "12345" }},
		{"non-numeric mobile", func(f *models.CheckoutForm) { f.Mobile = "98765abc10" }},
		{"missing course", func(f *models.CheckoutForm) { f.CourseID = "" }},
	}

	for _, tc := range cases {
		form := validForm()
		tc.mutate(&form)
		if err := checkout.ValidateForm(form); !errors.Is(err, checkout.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}

	if err := checkout.ValidateForm(validForm()); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}
}

func TestInitiateRejectsInvalidFormBeforeNetwork(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	i := checkout.NewInitiator(mockAPI, zerolog.Nop())

	form := validForm()
	form.Mobile = "123"
	if _, err := i.Initiate(context.Background(), form); !errors.Is(err, checkout.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if mockAPI.InitiateCalls != 0 {
		t.Errorf("invalid form must not reach the backend, got %d calls", mockAPI.InitiateCalls)
	}
}

func TestInitiateContractViolations(t *testing.T) {
	cases := []struct {
		name  string
		order *models.OrderData
	}{
		{"missing razorpayOrder", &models.OrderData{
			Payment: models.PaymentRecord{ID: "p1"},
		}},
		{"missing payment", &models.OrderData{
			RazorpayOrder: models.RazorpayOrder{ID: "order_1", Amount: 49900, Currency: "INR"},
		}},
	}

	for _, tc := range cases {
		mockAPI := mocks.NewMockAPI()
		mockAPI.InitiateFunc = func(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error) {
			return tc.order, nil
		}
		i := checkout.NewInitiator(mockAPI, zerolog.Nop())

		if _, err := i.Initiate(context.Background(), validForm()); !errors.Is(err, checkout.ErrInvalidResponse) {
			t.Errorf("%s: expected ErrInvalidResponse, got %v", tc.name, err)
		}
	}
}

func TestInitiateSuccess(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.InitiateFunc = func(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error) {
		return &models.OrderData{
			Payment:       models.PaymentRecord{ID: "p1"},
			RazorpayOrder: models.RazorpayOrder{ID: "order_1", Amount: 49900, Currency: "INR"},
		}, nil
	}
	i := checkout.NewInitiator(mockAPI, zerolog.Nop())

	order, err := i.Initiate(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if order.RazorpayOrder.ID != "order_1" || order.Payment.ID != "p1" {
		t.Errorf("unexpected order data: %+v", order)
	}
}
