package models

import (
	"time"
)

// SessionState is the checkout session lifecycle state
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateProcessing SessionState = "processing"
	StateSuccess    SessionState = "success"
	StateFailed     SessionState = "failed"
)

// ValidSessionStates defines the allowed session states
var ValidSessionStates = map[SessionState]bool{
	StateIdle:       true,
	StateProcessing: true,
	StateSuccess:    true,
	StateFailed:     true,
}

// CheckoutForm holds the user-entered enrollment details
type CheckoutForm struct {
	StudentName   string `json:"studentName"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email"`
	CourseID      string `json:"courseId"`
	PaymentMethod string `json:"paymentMethod"`
}

// PaymentRecord is a backend payment document. The verify endpoint returns
// it under several envelope shapes; see checkout.Verifier.
type PaymentRecord struct {
	ID                string    `json:"_id"`
	StudentName       string    `json:"studentName,omitempty"`
	Mobile            string    `json:"mobile,omitempty"`
	Email             string    `json:"email,omitempty"`
	CourseID          string    `json:"courseId,omitempty"`
	Amount            float64   `json:"amount,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	Status            string    `json:"status,omitempty"`
	PaymentMethod     string    `json:"paymentMethod,omitempty"`
	RazorpayOrderID   string    `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string    `json:"razorpayPaymentId,omitempty"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
}

// RazorpayOrder is the gateway order created by the backend
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
}

// OrderData couples the backend payment record with its gateway order.
// Both sub-objects are required; absence of either is a fatal initiation
// error.
type OrderData struct {
	Payment       PaymentRecord `json:"payment"`
	RazorpayOrder RazorpayOrder `json:"razorpayOrder"`
}

// GatewayCallback carries the identifiers reported by the gateway's
// success handler. They are relayed to the backend unmodified for
// signature verification.
type GatewayCallback struct {
	PaymentID         string `json:"paymentId"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// CheckoutPrefill holds contact details pre-populated into the gateway modal
type CheckoutPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// CheckoutTheme styles the gateway modal
type CheckoutTheme struct {
	Color string `json:"color"`
}

// CheckoutOptions is the option set handed to the gateway checkout widget
type CheckoutOptions struct {
	Key         string          `json:"key"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id"`
	Prefill     CheckoutPrefill `json:"prefill"`
	Theme       CheckoutTheme   `json:"theme"`
}

// PaymentSession tracks one checkout attempt end to end
type PaymentSession struct {
	ID              string         `json:"id"`
	Form            CheckoutForm   `json:"form"`
	State           SessionState   `json:"state"`
	OrderData       *OrderData     `json:"orderData,omitempty"`
	VerifiedPayment *PaymentRecord `json:"verifiedPayment,omitempty"`
	FailureReason   string         `json:"failureReason,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
