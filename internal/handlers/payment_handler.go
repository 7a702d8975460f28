package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"uzpay-service/internal/models"
	"uzpay-service/internal/payerr"
	"uzpay-service/internal/services"
	"uzpay-service/pkg/common"
)

// gatewayNames maps the URL path segment onto the canonical gateway name.
var gatewayNames = map[string]string{
	"payme":      models.GatewayPayme,
	"click":      models.GatewayClick,
	"freedompay": models.GatewayFreedomPay,
}

type PaymentHandler struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
	Summary  *services.SummaryService
}

func NewPaymentHandler(db *gorm.DB, checkout *services.CheckoutService, summary *services.SummaryService) *PaymentHandler {
	return &PaymentHandler{DB: db, Checkout: checkout, Summary: summary}
}

// CreateCheckout handles POST /api/payments/:gateway/checkout.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	gateway, ok := gatewayNames[c.Param("gateway")]
	if !ok {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Unsupported gateway", nil, http.StatusBadRequest))
		return
	}

	var input services.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	input.Gateway = gateway

	rec, err := h.Checkout.GetPaymentURL(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, payerr.ErrValidation):
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		case errors.Is(err, payerr.ErrGateway):
			c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error(), nil, http.StatusBadGateway))
		default:
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to create checkout", nil, http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"payment_url":    rec.PaymentURL,
		"transaction_id": rec.GatewayTransactionID,
		"order_id":       rec.OrderID,
		"gateway":        rec.Gateway,
		"status":         rec.Status,
	}, "Checkout created"))
}

// ListPayments handles GET /api/payments with optional gateway and status
// filters, paginated.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.DB.Model(&models.PaymentRequest{})
	if gateway, ok := gatewayNames[c.Query("gateway")]; ok {
		query = query.Where("gateway = ?", gateway)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to count payments", nil, http.StatusInternalServerError))
		return
	}

	var payments []models.PaymentRequest
	err = query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to list payments", nil, http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, common.PaginateResponse(payments, total, page, limit, ""))
}

// GetSummary handles GET /api/payments/summary.
func (h *PaymentHandler) GetSummary(c *gin.Context) {
	summaries, err := h.Summary.Summarize()
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to build summary", nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(summaries, "success"))
}
