package mocks

import (
	"context"
	"sort"

	"github.com/upsc-portal-gateway/internal/models"
)

// MockSessionRepository is an in-memory implementation of
// store.SessionRepository
type MockSessionRepository struct {
	Sessions    map[string]*models.PaymentSession
	CreateError error
	UpdateError error
	CreateCalls int
	UpdateCalls int
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*models.PaymentSession),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.PaymentSession) error {
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	copied := *session
	m.Sessions[session.ID] = &copied
	return nil
}

func (m *MockSessionRepository) UpdateState(ctx context.Context, session *models.PaymentSession) error {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	copied := *session
	m.Sessions[session.ID] = &copied
	return nil
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*models.PaymentSession, error) {
	return m.Sessions[id], nil
}

func (m *MockSessionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentSession, error) {
	for _, s := range m.Sessions {
		if s.OrderData != nil && s.OrderData.RazorpayOrder.ID == orderID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockSessionRepository) Recent(ctx context.Context, limit int) ([]*models.PaymentSession, error) {
	var out []*models.PaymentSession
	for _, s := range m.Sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
