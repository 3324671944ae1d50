package api

import (
	"net/http"
	"strings"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/gin-gonic/gin"
)

type AirportHandler struct{}

func NewAirportHandler() *AirportHandler {
	return &AirportHandler{}
}

func (h *AirportHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *AirportHandler) list(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		c.JSON(http.StatusOK, gin.H{"airports": domain.SearchAirports(q)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"airports": domain.Airports()})
}
