package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/models"
	"uzpay-service/pkg/common"
)

// SettingsHandler manages per-gateway merchant credentials. Writes go to the
// DB and invalidate the Redis-cached copy so the next callback reads fresh
// credentials.
type SettingsHandler struct {
	DB    *gorm.DB
	Cache *cache.SettingsCache
}

func NewSettingsHandler(db *gorm.DB, c *cache.SettingsCache) *SettingsHandler {
	return &SettingsHandler{DB: db, Cache: c}
}

type settingsRequest struct {
	MerchantID string `json:"merchant_id"`
	ServiceID  string `json:"service_id"`
	TerminalID string `json:"terminal_id"`
	SecretKey  string `json:"secret_key" binding:"required"`
	BaseURL    string `json:"base_url"`
	Active     *bool  `json:"active"`
}

// Upsert handles PUT /api/settings/:gateway.
func (h *SettingsHandler) Upsert(c *gin.Context) {
	gateway, ok := gatewayNames[c.Param("gateway")]
	if !ok {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Unsupported gateway", nil, http.StatusBadRequest))
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	settings := models.GatewaySettings{
		Gateway:    gateway,
		MerchantID: req.MerchantID,
		ServiceID:  req.ServiceID,
		TerminalID: req.TerminalID,
		SecretKey:  req.SecretKey,
		BaseURL:    req.BaseURL,
		Active:     active,
	}

	err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway"}},
		DoUpdates: clause.AssignmentColumns([]string{"merchant_id", "service_id", "terminal_id", "secret_key", "base_url", "active"}),
	}).Create(&settings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to save settings", nil, http.StatusInternalServerError))
		return
	}

	h.Cache.Invalidate(c.Request.Context(), gateway)

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"gateway": gateway, "active": active}, "Settings saved"))
}

// Get handles GET /api/settings/:gateway. The secret key is masked.
func (h *SettingsHandler) Get(c *gin.Context) {
	gateway, ok := gatewayNames[c.Param("gateway")]
	if !ok {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Unsupported gateway", nil, http.StatusBadRequest))
		return
	}

	var settings models.GatewaySettings
	if err := h.DB.Where("gateway = ?", gateway).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, common.NewErrorResponse("Settings not found", nil, http.StatusNotFound))
			return
		}
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Failed to load settings", nil, http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"gateway":     settings.Gateway,
		"merchant_id": settings.MerchantID,
		"service_id":  settings.ServiceID,
		"terminal_id": settings.TerminalID,
		"base_url":    settings.BaseURL,
		"active":      settings.Active,
	}, "success"))
}
