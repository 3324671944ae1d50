// Package pricegen synthesizes reproducible flight prices for a route and day.
package pricegen

import (
	"fmt"
	"math"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
)

const (
	defaultBasePrice = 300
	// maxVariation is the full width of the price band around the base price.
	maxVariation = 0.3
)

var airlines = []string{
	"Lufthansa",
	"British Airways",
	"Air France",
	"KLM",
	"United",
	"Delta",
	"Emirates",
	"Singapore Airlines",
	"Thai Airways",
	"Condor",
	"Norse Atlantic",
	"TAP Portugal",
}

var bookingSites = []string{
	"Google Flights",
	"Skyscanner",
	"Kayak",
	"Momondo",
	"Direct Airline",
}

var basePrices = map[string]float64{
	"BER-JFK": 450,
	"BER-LHR": 120,
	"BER-CDG": 100,
	"BER-LIS": 180,
	"BER-BKK": 650,
	"BER-NRT": 750,
	"BER-SIN": 700,
	"BER-DXB": 400,
	"BER-SFO": 550,
}

// BasePrice returns the reference fare of a route. Routes are symmetric.
func BasePrice(from, to string) float64 {
	if p, ok := basePrices[from+"-"+to]; ok {
		return p
	}
	if p, ok := basePrices[to+"-"+from]; ok {
		return p
	}
	return defaultBasePrice
}

// GeneratePrice returns the synthetic quote for a route on the calendar day of date.
// The same route and day always produce the same price, airline and site.
func GeneratePrice(from, to string, date time.Time) domain.FlightPrice {
	seed := dateSeed(date) + firstCharCode(from) + firstCharCode(to)

	variation := (seededRandom(seed) - 0.5) * maxVariation
	price := math.Round(BasePrice(from, to) * (1 + variation))

	airline := airlines[int(math.Floor(seededRandom(seed+1)*float64(len(airlines))))]
	site := bookingSites[int(math.Floor(seededRandom(seed+2)*float64(len(bookingSites))))]

	return domain.FlightPrice{
		ID:          fmt.Sprintf("%s-%s-%s", from, to, date.UTC().Format(time.RFC3339)),
		From:        from,
		To:          to,
		Price:       price,
		Currency:    domain.Currency,
		Airline:     airline,
		BookingSite: site,
		Timestamp:   date,
	}
}

// GenerateHistory returns one price per day for the last days days, oldest first,
// ending at now.
func GenerateHistory(from, to string, days int, now time.Time) []domain.FlightPrice {
	if days <= 0 {
		return []domain.FlightPrice{}
	}
	history := make([]domain.FlightPrice, 0, days)
	for i := days - 1; i >= 0; i-- {
		history = append(history, GeneratePrice(from, to, now.AddDate(0, 0, -i)))
	}
	return history
}

// Prices extracts the fare series of a history.
func Prices(history []domain.FlightPrice) []float64 {
	out := make([]float64, 0, len(history))
	for _, p := range history {
		out = append(out, p.Price)
	}
	return out
}

func seededRandom(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}

func dateSeed(date time.Time) int {
	return date.Year()*10000 + int(date.Month())*100 + date.Day()
}

func firstCharCode(code string) int {
	if code == "" {
		return 0
	}
	return int(code[0])
}
