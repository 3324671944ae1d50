package api

import (
	"net/http"

	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	actionSetHomeAirport    = "setHomeAirport"
	actionSetWebhookURL     = "setWebhookUrl"
	actionAddDestination    = "addDestination"
	actionRemoveDestination = "removeDestination"
	actionRefreshPrices     = "refreshPrices"
)

type ConfigHandler struct {
	service prices.PriceUseCase
	log     *zap.Logger
}

type configActionRequest struct {
	Action string `json:"action" binding:"required"`
	Code   string `json:"code"`
	URL    string `json:"url"`
}

func NewConfigHandler(service prices.PriceUseCase, log *zap.Logger) *ConfigHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfigHandler{service: service, log: log}
}

func (h *ConfigHandler) Register(router *gin.RouterGroup) {
	router.POST("/users", h.createUser)
	router.GET("/config/:uuid", h.get)
	router.POST("/config/:uuid", h.update)
}

func (h *ConfigHandler) createUser(c *gin.Context) {
	id, err := h.service.CreateUser(c.Request.Context())
	if err != nil {
		h.internalError(c, "create user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uuid": id})
}

func (h *ConfigHandler) get(c *gin.Context) {
	dash, err := h.service.Dashboard(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		h.internalError(c, "load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *ConfigHandler) update(c *gin.Context) {
	var req configActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.Param("uuid")

	switch req.Action {
	case actionSetHomeAirport:
		ok, err := h.service.SetHomeAirport(ctx, userID, normalizeCode(req.Code))
		h.respondOK(c, ok, err, "Invalid airport code")

	case actionSetWebhookURL:
		ok, err := h.service.SetWebhookURL(ctx, userID, req.URL)
		h.respondOK(c, ok, err, "Invalid webhook URL")

	case actionAddDestination:
		ok, err := h.service.AddDestination(ctx, userID, normalizeCode(req.Code))
		h.respondOK(c, ok, err, "Invalid airport code")

	case actionRemoveDestination:
		removed, err := h.service.RemoveDestination(ctx, userID, normalizeCode(req.Code))
		if err != nil {
			h.internalError(c, "remove destination", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})

	case actionRefreshPrices:
		cfg, err := h.service.Configuration(ctx, userID)
		if err != nil {
			h.internalError(c, "load configuration", err)
			return
		}
		count, err := h.service.Refresh(ctx, userID, cfg.HomeAirport)
		if err != nil {
			h.internalError(c, "refresh prices", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": count})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
	}
}

func (h *ConfigHandler) respondOK(c *gin.Context, ok bool, err error, invalidMsg string) {
	if err != nil {
		h.internalError(c, "update configuration", err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidMsg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ConfigHandler) internalError(c *gin.Context, op string, err error) {
	h.log.Error(op+" failed", zap.String("user_id", c.Param("uuid")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
