package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/service/flights"
	"github.com/gin-gonic/gin"
)

const (
	dateLayout     = "2006-01-02"
	defaultFrom    = "BER"
	defaultTo      = "JFK"
	defaultHistory = 30
)

type FlightHandler struct {
	service flights.FlightUseCase
	now     func() time.Time
}

type flightQuery struct {
	From    string `form:"from" binding:"omitempty,iata"`
	To      string `form:"to" binding:"omitempty,iata"`
	Date    string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	History bool   `form:"history"`
	Days    int    `form:"days" binding:"omitempty,min=1,max=365"`
}

type liveQuery struct {
	From string `form:"from" binding:"required,iata"`
	To   string `form:"to" binding:"required,iata"`
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service, now: time.Now}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.get)
	router.GET("/live", h.live)
}

func (h *FlightHandler) get(c *gin.Context) {
	upperQuery(c, "from", "to")
	var q flightQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.From == "" {
		q.From = defaultFrom
	}
	if q.To == "" {
		q.To = defaultTo
	}

	if q.History {
		days := q.Days
		if days == 0 {
			days = defaultHistory
		}
		history, err := h.service.History(c.Request.Context(), q.From, q.To, days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, history)
		return
	}

	date := h.date(q.Date)
	c.JSON(http.StatusOK, gin.H{
		"from":   q.From,
		"to":     q.To,
		"date":   date.Format(dateLayout),
		"flight": h.service.Quote(q.From, q.To, date),
	})
}

func (h *FlightHandler) live(c *gin.Context) {
	upperQuery(c, "from", "to")
	var q liveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := h.date(q.Date)
	quote, err := h.service.Live(c.Request.Context(), q.From, q.To, date)
	if errors.Is(err, flights.ErrNoLiveQuote) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No flights found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":   q.From,
		"to":     q.To,
		"date":   date.Format(dateLayout),
		"flight": quote,
	})
}

// date parses an already validated YYYY-MM-DD value, defaulting to today (UTC).
func (h *FlightHandler) date(raw string) time.Time {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t
	}
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
