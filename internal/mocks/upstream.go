package mocks

import (
	"context"
	"encoding/json"

	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// MockAPI is a mock implementation of upstream.API
type MockAPI struct {
	GetAffairsFunc  func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error)
	GetAffairFunc   func(ctx context.Context, id string) (*models.Article, error)
	GetCoursesFunc  func(ctx context.Context, page, limit int) ([]models.Course, error)
	InitiateFunc    func(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error)
	VerifyFunc      func(ctx context.Context, cb models.GatewayCallback) (json.RawMessage, error)
	GetReceiptFunc  func(ctx context.Context, paymentID string) (json.RawMessage, error)
	RecentFunc      func(ctx context.Context) (json.RawMessage, error)

	GetAffairsCalls int
	GetAffairCalls  int
	InitiateCalls   int
	VerifyCalls     int

	LastAffairsQuery map[string]string
	LastCallback     models.GatewayCallback
}

func NewMockAPI() *MockAPI {
	return &MockAPI{}
}

func (m *MockAPI) GetAffairs(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
	m.GetAffairsCalls++
	m.LastAffairsQuery = query
	if m.GetAffairsFunc != nil {
		return m.GetAffairsFunc(ctx, query)
	}
	return &upstream.AffairsPage{}, nil
}

func (m *MockAPI) GetAffair(ctx context.Context, id string) (*models.Article, error) {
	m.GetAffairCalls++
	if m.GetAffairFunc != nil {
		return m.GetAffairFunc(ctx, id)
	}
	return nil, upstream.ErrNotFound
}

func (m *MockAPI) GetCourses(ctx context.Context, page, limit int) ([]models.Course, error) {
	if m.GetCoursesFunc != nil {
		return m.GetCoursesFunc(ctx, page, limit)
	}
	return nil, nil
}

func (m *MockAPI) InitiatePayment(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error) {
	m.InitiateCalls++
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, form)
	}
	return &models.OrderData{}, nil
}

func (m *MockAPI) VerifyPayment(ctx context.Context, cb models.GatewayCallback) (json.RawMessage, error) {
	m.VerifyCalls++
	m.LastCallback = cb
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, cb)
	}
	return json.RawMessage(`{}`), nil
}

func (m *MockAPI) GetReceipt(ctx context.Context, paymentID string) (json.RawMessage, error) {
	if m.GetReceiptFunc != nil {
		return m.GetReceiptFunc(ctx, paymentID)
	}
	return json.RawMessage(`{}`), nil
}

func (m *MockAPI) RecentPayments(ctx context.Context) (json.RawMessage, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx)
	}
	return json.RawMessage(`[]`), nil
}
