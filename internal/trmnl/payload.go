// Package trmnl turns destination snapshots into the TRMNL plugin payload and
// delivers it to a user's webhook.
package trmnl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
)

const (
	quickChartBase  = "https://quickchart.io/chart"
	lastUpdatedTime = "2006-01-02T15:04:05.000Z"
	unknown         = "Unknown"
	neutralTrend    = "0%"
)

type Destination struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	Currency     string  `json:"currency"`
	Trend        string  `json:"trend"`
	BestAirline  string  `json:"best_airline"`
	BestSite     string  `json:"best_site"`
	ChartURL     string  `json:"chart_url"`
}

type MergeVariables struct {
	HomeAirport  string        `json:"home_airport"`
	LastUpdated  string        `json:"last_updated"`
	Destinations []Destination `json:"destinations"`
}

type Payload struct {
	MergeVariables *MergeVariables `json:"merge_variables"`
}

type chartConfig struct {
	Type    string       `json:"type"`
	Data    chartData    `json:"data"`
	Options chartOptions `json:"options"`
}

type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

type chartDataset struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	Fill        bool      `json:"fill"`
	BorderColor string    `json:"borderColor"`
	Tension     float64   `json:"tension"`
}

type chartOptions struct {
	Plugins struct {
		Legend struct {
			Display bool `json:"display"`
		} `json:"legend"`
	} `json:"plugins"`
	Scales struct {
		Y struct {
			BeginAtZero bool `json:"beginAtZero"`
		} `json:"y"`
	} `json:"scales"`
}

// ChartURL returns a QuickChart line chart of prices, or "" when there are none
// or they cannot be encoded.
func ChartURL(code string, prices []float64) string {
	if len(prices) == 0 {
		return ""
	}

	labels := make([]string, len(prices))
	for i := range prices {
		labels[i] = fmt.Sprintf("Day %d", i+1)
	}

	cfg := chartConfig{
		Type: "line",
		Data: chartData{
			Labels: labels,
			Datasets: []chartDataset{{
				Label:       "Price (EUR)",
				Data:        prices,
				BorderColor: "#4ade80",
				Tension:     0.1,
			}},
		},
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		// NaN and Inf prices cannot be encoded
		return ""
	}
	encoded := strings.ReplaceAll(url.QueryEscape(string(raw)), "+", "%20")
	return quickChartBase + "?c=" + encoded + "&w=400&h=150&bkg=white"
}

// ToExternalDestination maps a snapshot onto the TRMNL destination shape,
// filling unknown fields with display defaults.
func ToExternalDestination(s domain.DestinationSnapshot, prices []float64) Destination {
	name := s.Code
	if a, ok := domain.LookupAirport(s.Code); ok && a.City != "" {
		name = a.City
	} else if s.Name != "" {
		name = s.Name
	}

	return Destination{
		Code:         s.Code,
		Name:         name,
		CurrentPrice: s.CurrentPrice,
		Currency:     domain.Currency,
		Trend:        orDefault(s.Trend, neutralTrend),
		BestAirline:  orDefault(s.BestAirline, unknown),
		BestSite:     orDefault(s.BestSite, unknown),
		ChartURL:     ChartURL(s.Code, prices),
	}
}

// BuildPayload assembles the TRMNL document stamped with the current time.
func BuildPayload(home string, snapshots []domain.DestinationSnapshot, pricesByCode map[string][]float64) Payload {
	return buildPayloadAt(time.Now(), home, snapshots, pricesByCode)
}

func buildPayloadAt(now time.Time, home string, snapshots []domain.DestinationSnapshot, pricesByCode map[string][]float64) Payload {
	homeLabel := home
	if a, ok := domain.LookupAirport(home); ok {
		homeLabel = fmt.Sprintf("%s (%s)", home, a.City)
	}

	destinations := make([]Destination, 0, len(snapshots))
	for _, s := range snapshots {
		destinations = append(destinations, ToExternalDestination(s, pricesByCode[s.Code]))
	}

	return Payload{
		MergeVariables: &MergeVariables{
			HomeAirport:  homeLabel,
			LastUpdated:  now.UTC().Format(lastUpdatedTime),
			Destinations: destinations,
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
