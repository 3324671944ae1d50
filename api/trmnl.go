package api

import (
	"errors"
	"net/http"

	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TrmnlHandler struct {
	service prices.PriceUseCase
	log     *zap.Logger
}

func NewTrmnlHandler(service prices.PriceUseCase, log *zap.Logger) *TrmnlHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrmnlHandler{service: service, log: log}
}

func (h *TrmnlHandler) Register(router *gin.RouterGroup) {
	router.GET("/:uuid", h.payload)
	router.POST("/:uuid/push", h.push)
}

func (h *TrmnlHandler) payload(c *gin.Context) {
	payload, _, err := h.service.Payload(c.Request.Context(), c.Param("uuid"))
	if errors.Is(err, prices.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.log.Error("build payload failed", zap.String("user_id", c.Param("uuid")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *TrmnlHandler) push(c *gin.Context) {
	err := h.service.PushPayload(c.Request.Context(), c.Param("uuid"))
	if errors.Is(err, prices.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.log.Warn("push payload failed", zap.String("user_id", c.Param("uuid")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
