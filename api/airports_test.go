package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirportHandler_list(t *testing.T) {
	handler := NewAirportHandler()

	tests := []struct {
		name  string
		url   string
		codes []string
	}{
		{name: "all", url: "/api/airports", codes: []string{"BER", "JFK", "LHR", "CDG", "LIS", "BKK", "NRT", "SIN", "DXB", "SFO"}},
		{name: "by city", url: "/api/airports?q=lisbon", codes: []string{"LIS"}},
		{name: "by code", url: "/api/airports?q=sfo", codes: []string{"SFO"}},
		{name: "no match", url: "/api/airports?q=zzz", codes: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			handler.list(c)

			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Airports []domain.Airport `json:"airports"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			codes := make([]string, 0, len(body.Airports))
			for _, a := range body.Airports {
				codes = append(codes, a.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}
