package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/checkout"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// CheckoutHandler handles payment endpoints
type CheckoutHandler struct {
	svc      *checkout.Service
	receipts *checkout.ReceiptRenderer
	log      zerolog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(svc *checkout.Service, receipts *checkout.ReceiptRenderer, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		svc:      svc,
		receipts: receipts,
		log:      log.With().Str("handler", "checkout").Logger(),
	}
}

// Create handles POST /v1/checkout
func (h *CheckoutHandler) Create(c *gin.Context) {
	var form models.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, opts, err := h.svc.Start(c.Request.Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrInvalidResponse):
			h.log.Error().Err(err).Msg("Backend order creation returned an incomplete response")
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be started", "session": session})
		case errors.Is(err, checkout.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable", "session": session})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be started", "session": session})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":         session,
		"checkoutOptions": opts,
	})
}

// Callback handles POST /v1/checkout/:session_id/callback
func (h *CheckoutHandler) Callback(c *gin.Context) {
	var event checkout.CallbackEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback payload"})
		return
	}

	session, err := h.svc.HandleCallback(c.Request.Context(), c.Param("session_id"), event)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout session"})
			return
		}
		// The callback was processed; the session simply did not reach
		// success. The caller gets the failed session, not an opaque 5xx.
		if errors.Is(err, checkout.ErrVerificationFailed) {
			c.JSON(http.StatusOK, gin.H{"session": session})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification could not be completed", "session": session})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Get handles GET /v1/checkout/:session_id
func (h *CheckoutHandler) Get(c *gin.Context) {
	session, ok := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Receipt handles GET /v1/checkout/:session_id/receipt
func (h *CheckoutHandler) Receipt(c *gin.Context) {
	session, ok := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout session"})
		return
	}
	if session.State != models.StateSuccess || session.VerifiedPayment == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "receipt available only for successful payments"})
		return
	}

	c.String(http.StatusOK, h.receipts.Render(session.VerifiedPayment))
}

// Courses handles GET /v1/courses
func (h *CheckoutHandler) Courses(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	courses, err := h.svc.Courses(c.Request.Context(), page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load courses")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": courses})
}

// BackendReceipt handles GET /v1/payments/:payment_id/receipt, proxying
// the backend's receipt document unmodified.
func (h *CheckoutHandler) BackendReceipt(c *gin.Context) {
	raw, err := h.svc.BackendReceipt(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to load backend receipt")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load receipt"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// Recent handles GET /v1/recent-payments
func (h *CheckoutHandler) Recent(c *gin.Context) {
	sessions, err := h.svc.Recent(c.Request.Context(), 20)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions})
}
