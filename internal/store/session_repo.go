package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upsc-portal-gateway/internal/database"
	"github.com/upsc-portal-gateway/internal/models"
)

// sessionRepo is the concrete implementation of SessionRepository
type sessionRepo struct {
	db *database.DB
}

// newSessionRepo creates a new session repository
func newSessionRepo(db *database.DB) SessionRepository {
	return &sessionRepo{db: db}
}

// Create inserts a new checkout session
func (r *sessionRepo) Create(ctx context.Context, s *models.PaymentSession) error {
	query := `
		INSERT INTO payment_sessions (id, student_name, mobile, email, course_id, payment_method,
			state, razorpay_order_id, backend_payment_id, verified_payment_id, failure_reason,
			amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	orderID, paymentID, amount, currency := orderFields(s)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Form.StudentName, s.Form.Mobile, s.Form.Email, s.Form.CourseID, s.Form.PaymentMethod,
		string(s.State), nullString(orderID), nullString(paymentID), nullString(verifiedID(s)),
		nullString(s.FailureReason), amount, currency, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// UpdateState records a session transition
func (r *sessionRepo) UpdateState(ctx context.Context, s *models.PaymentSession) error {
	query := `
		UPDATE payment_sessions SET
			state = $1, razorpay_order_id = $2, backend_payment_id = $3,
			verified_payment_id = $4, failure_reason = $5, amount = $6, currency = $7,
			updated_at = $8
		WHERE id = $9
	`
	orderID, paymentID, amount, currency := orderFields(s)
	_, err := r.db.ExecContext(ctx, query,
		string(s.State), nullString(orderID), nullString(paymentID), nullString(verifiedID(s)),
		nullString(s.FailureReason), amount, currency, s.UpdatedAt, s.ID,
	)
	return err
}

// GetByID retrieves a session by its id
func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.PaymentSession, error) {
	query := selectColumns + ` WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByOrderID retrieves a session by its gateway order id
func (r *sessionRepo) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentSession, error) {
	query := selectColumns + ` WHERE razorpay_order_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, orderID))
}

// Recent lists the most recently updated sessions
func (r *sessionRepo) Recent(ctx context.Context, limit int) ([]*models.PaymentSession, error) {
	query := selectColumns + ` ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

const selectColumns = `
	SELECT id, student_name, mobile, email, course_id, payment_method, state,
		razorpay_order_id, backend_payment_id, verified_payment_id, failure_reason,
		amount, currency, created_at, updated_at
	FROM payment_sessions`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *sessionRepo) scanOne(row rowScanner) (*models.PaymentSession, error) {
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSession(row rowScanner) (*models.PaymentSession, error) {
	var s models.PaymentSession
	var state string
	var orderID, paymentID, verifiedPaymentID, failureReason, currency sql.NullString
	var amount sql.NullInt64

	err := row.Scan(
		&s.ID, &s.Form.StudentName, &s.Form.Mobile, &s.Form.Email, &s.Form.CourseID,
		&s.Form.PaymentMethod, &state, &orderID, &paymentID, &verifiedPaymentID,
		&failureReason, &amount, &currency, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st := models.SessionState(state)
	if !models.ValidSessionStates[st] {
		return nil, fmt.Errorf("session %s has unknown state %q", s.ID, state)
	}
	s.State = st
	s.FailureReason = failureReason.String

	if orderID.Valid || paymentID.Valid {
		s.OrderData = &models.OrderData{
			Payment: models.PaymentRecord{ID: paymentID.String},
			RazorpayOrder: models.RazorpayOrder{
				ID:       orderID.String,
				Amount:   amount.Int64,
				Currency: currency.String,
			},
		}
	}
	if verifiedPaymentID.Valid {
		s.VerifiedPayment = &models.PaymentRecord{ID: verifiedPaymentID.String}
	}

	return &s, nil
}

func orderFields(s *models.PaymentSession) (orderID, paymentID string, amount int64, currency string) {
	if s.OrderData == nil {
		return "", "", 0, ""
	}
	return s.OrderData.RazorpayOrder.ID, s.OrderData.Payment.ID,
		s.OrderData.RazorpayOrder.Amount, s.OrderData.RazorpayOrder.Currency
}

func verifiedID(s *models.PaymentSession) string {
	if s.VerifiedPayment == nil {
		return ""
	}
	return s.VerifiedPayment.ID
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
