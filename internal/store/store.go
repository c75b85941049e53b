// Package store persists checkout sessions to Postgres as an audit trail.
// The session state machine lives in memory in the checkout service; this
// store records every transition so support staff can reconcile a payment
// after the fact. Store failures are logged, never surfaced to the payer.
package store

import (
	"context"

	"github.com/upsc-portal-gateway/internal/database"
	"github.com/upsc-portal-gateway/internal/models"
)

// SessionRepository defines the interface for checkout session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *models.PaymentSession) error
	UpdateState(ctx context.Context, session *models.PaymentSession) error
	GetByID(ctx context.Context, id string) (*models.PaymentSession, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentSession, error)
	Recent(ctx context.Context, limit int) ([]*models.PaymentSession, error)
}

// New creates the Postgres-backed session repository
func New(db *database.DB) SessionRepository {
	return newSessionRepo(db)
}
