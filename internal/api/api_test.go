package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/affairs"
	"github.com/upsc-portal-gateway/internal/api"
	"github.com/upsc-portal-gateway/internal/checkout"
	"github.com/upsc-portal-gateway/internal/config"
	"github.com/upsc-portal-gateway/internal/mocks"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockAPI, *mocks.MockSessionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	script := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(script.Close)

	mockAPI := mocks.NewMockAPI()
	repo := mocks.NewMockSessionRepository()
	log := zerolog.Nop()

	list := affairs.NewListController(mockAPI, 2500*time.Millisecond, log)
	detail := affairs.NewDetailController(mockAPI, 12, log)
	affairsHandler := api.NewAffairsHandler(list, detail, 12, log)

	gateway := checkout.NewGateway(config.RazorpayConfig{
		KeyID:       "rzp_test_key",
		ScriptURL:   script.URL,
		BrandName:   "UPSC Prep Portal",
		ThemeColor:  "#b91c1c",
		ScriptProbe: 2 * time.Second,
	}, log)
	svc := checkout.NewService(mockAPI, gateway, repo, nil, log)
	receipts := checkout.NewReceiptRenderer("UPSC Prep Portal", "Asia/Kolkata")
	checkoutHandler := api.NewCheckoutHandler(svc, receipts, log)

	router := api.NewRouter(affairsHandler, checkoutHandler, log)
	return router, mockAPI, repo
}

func affairsPage(items ...models.Article) *upstream.AffairsPage {
	return &upstream.AffairsPage{Items: items, Message: "Affairs fetched successfully"}
}

func checkoutBody() string {
	return `{"studentName":"Asha Rao","mobile":"9876543210","email":"asha@example.com","courseId":"course-42"}`
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "upsc-portal-gateway" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestListAffairsPassesFilters(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetAffairsFunc = func(_ context.Context, _ map[string]string) (*upstream.AffairsPage, error) {
		return affairsPage(models.Article{ID: "a1", Title: "Polity update"}), nil
	}

	req := httptest.NewRequest("GET", "/v1/affairs?q=polity&papers=GS2&page=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	q := mockAPI.LastAffairsQuery
	if q["q"] != "polity" || q["paperName"] != "GS2" || q["page"] != "3" {
		t.Errorf("unexpected upstream query: %v", q)
	}

	var result affairs.ListResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != "a1" {
		t.Errorf("items = %+v", result.Items)
	}
}

func TestListAffairsRejectsBadDate(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/v1/affairs?date=yesterday", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if mockAPI.GetAffairsCalls != 0 {
		t.Errorf("Expected no upstream call, got %d", mockAPI.GetAffairsCalls)
	}
}

func TestDetailBySlug(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetAffairsFunc = func(_ context.Context, _ map[string]string) (*upstream.AffairsPage, error) {
		return affairsPage(
			models.Article{ID: "a1", Title: "Union Budget Highlights"},
			models.Article{ID: "a2", Title: "Monsoon Session Recap"},
		), nil
	}

	req := httptest.NewRequest("GET", "/currentAffairs/union-budget-highlights", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result affairs.DetailResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.Article == nil || result.Article.ID != "a1" {
		t.Errorf("article = %+v", result.Article)
	}
	if len(result.Sidebar) != 1 || result.Sidebar[0].ID != "a2" {
		t.Errorf("sidebar = %+v", result.Sidebar)
	}
}

func TestDetailNotFound(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetAffairsFunc = func(_ context.Context, _ map[string]string) (*upstream.AffairsPage, error) {
		return affairsPage(), nil
	}

	req := httptest.NewRequest("GET", "/currentAffairs/nothing-here", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestLegacyDetailRedirectsToCanonical(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetAffairFunc = func(_ context.Context, id string) (*models.Article, error) {
		if id != "65f1c2" {
			t.Errorf("fetched id %q", id)
		}
		return &models.Article{ID: "65f1c2", Title: "Union Budget Highlights"}, nil
	}
	mockAPI.GetAffairsFunc = func(_ context.Context, _ map[string]string) (*upstream.AffairsPage, error) {
		return affairsPage(), nil
	}

	req := httptest.NewRequest("GET", "/currentAffairs/65f1c2/old-budget-slug", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("Expected status 301, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/currentAffairs/union-budget-highlights" {
		t.Errorf("Location = %q", loc)
	}
}

func TestCheckoutRejectsInvalidForm(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)

	body := `{"studentName":"Asha Rao","mobile":"12345","email":"asha@example.com","courseId":"course-42"}`
	req := httptest.NewRequest("POST", "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if mockAPI.InitiateCalls != 0 {
		t.Errorf("Expected no initiation call, got %d", mockAPI.InitiateCalls)
	}
}

func TestCheckoutFullFlow(t *testing.T) {
	router, mockAPI, repo := setupTestRouter(t)
	mockAPI.InitiateFunc = func(_ context.Context, _ models.CheckoutForm) (*models.OrderData, error) {
		return &models.OrderData{
			Payment:       models.PaymentRecord{ID: "pay-backend-1"},
			RazorpayOrder: models.RazorpayOrder{ID: "order_1", Amount: 49900, Currency: "INR"},
		}, nil
	}
	mockAPI.VerifyFunc = func(_ context.Context, _ models.GatewayCallback) (json.RawMessage, error) {
		return json.RawMessage(`{"data":{"payment":{"_id":"pay-verified-1","status":"captured","razorpayPaymentId":"pay_rzp_1"}}}`), nil
	}

	// Create
	req := httptest.NewRequest("POST", "/v1/checkout", strings.NewReader(checkoutBody()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Session         models.PaymentSession  `json:"session"`
		CheckoutOptions models.CheckoutOptions `json:"checkoutOptions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Session.ID == "" || created.Session.State != models.StateProcessing {
		t.Fatalf("session = %+v", created.Session)
	}
	if created.CheckoutOptions.Key != "rzp_test_key" || created.CheckoutOptions.OrderID != "order_1" {
		t.Errorf("checkoutOptions = %+v", created.CheckoutOptions)
	}

	// Receipt is gated until the payment is verified
	req = httptest.NewRequest("GET", "/v1/checkout/"+created.Session.ID+"/receipt", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 before verification, got %d", w.Code)
	}

	// Gateway success callback
	cb := `{"kind":"success","payload":{"paymentId":"pay-backend-1","razorpay_payment_id":"pay_rzp_1","razorpay_order_id":"order_1","razorpay_signature":"sig"}}`
	req = httptest.NewRequest("POST", "/v1/checkout/"+created.Session.ID+"/callback", strings.NewReader(cb))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var done struct {
		Session models.PaymentSession `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &done); err != nil {
		t.Fatalf("decode callback response: %v", err)
	}
	if done.Session.State != models.StateSuccess {
		t.Errorf("state = %s, want success", done.Session.State)
	}
	if done.Session.VerifiedPayment == nil || done.Session.VerifiedPayment.ID != "pay-verified-1" {
		t.Errorf("verifiedPayment = %+v", done.Session.VerifiedPayment)
	}

	// Receipt now renders
	req = httptest.NewRequest("GET", "/v1/checkout/"+created.Session.ID+"/receipt", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pay-verified-1") {
		t.Errorf("receipt missing payment id:\n%s", w.Body.String())
	}

	if repo.CreateCalls != 1 {
		t.Errorf("audit creates = %d, want 1", repo.CreateCalls)
	}
}

func TestCoursesEndpoint(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetCoursesFunc = func(_ context.Context, page, limit int) ([]models.Course, error) {
		if page != 2 || limit != 5 {
			t.Errorf("page=%d limit=%d", page, limit)
		}
		return []models.Course{{ID: "course-42", Title: "GS Foundation", Price: 4999}}, nil
	}

	req := httptest.NewRequest("GET", "/v1/courses?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Data []models.Course `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(response.Data) != 1 || response.Data[0].ID != "course-42" {
		t.Errorf("data = %+v", response.Data)
	}
}

func TestBackendReceiptPassthrough(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetReceiptFunc = func(_ context.Context, paymentID string) (json.RawMessage, error) {
		if paymentID != "pay-1" {
			t.Errorf("paymentID = %q", paymentID)
		}
		return json.RawMessage(`{"data":{"receiptNo":"RCP-100"}}`), nil
	}

	req := httptest.NewRequest("GET", "/v1/payments/pay-1/receipt", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != `{"data":{"receiptNo":"RCP-100"}}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestBackendReceiptNotFound(t *testing.T) {
	router, mockAPI, _ := setupTestRouter(t)
	mockAPI.GetReceiptFunc = func(_ context.Context, paymentID string) (json.RawMessage, error) {
		return nil, upstream.ErrNotFound
	}

	req := httptest.NewRequest("GET", "/v1/payments/missing/receipt", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCallbackUnknownSession(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	cb := `{"kind":"dismissed"}`
	req := httptest.NewRequest("POST", "/v1/checkout/nope/callback", strings.NewReader(cb))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
