package domain

import "strings"

type Airport struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

var airports = []Airport{
	{Code: "BER", Name: "Berlin Brandenburg", City: "Berlin", Country: "Germany"},
	{Code: "JFK", Name: "John F. Kennedy", City: "New York", Country: "USA"},
	{Code: "LHR", Name: "Heathrow", City: "London", Country: "UK"},
	{Code: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "France"},
	{Code: "LIS", Name: "Lisbon Portela", City: "Lisbon", Country: "Portugal"},
	{Code: "BKK", Name: "Suvarnabhumi", City: "Bangkok", Country: "Thailand"},
	{Code: "NRT", Name: "Narita", City: "Tokyo", Country: "Japan"},
	{Code: "SIN", Name: "Changi", City: "Singapore", Country: "Singapore"},
	{Code: "DXB", Name: "Dubai International", City: "Dubai", Country: "UAE"},
	{Code: "SFO", Name: "San Francisco", City: "San Francisco", Country: "USA"},
}

// Airports returns a copy of the static airport catalog.
func Airports() []Airport {
	out := make([]Airport, len(airports))
	copy(out, airports)
	return out
}

// LookupAirport finds an airport by its exact (case-sensitive) code.
func LookupAirport(code string) (Airport, bool) {
	for _, a := range airports {
		if a.Code == code {
			return a, true
		}
	}
	return Airport{}, false
}

func IsKnownAirport(code string) bool {
	_, ok := LookupAirport(code)
	return ok
}

// SearchAirports matches the query against code, name and city, ignoring case.
func SearchAirports(query string) []Airport {
	q := strings.ToLower(query)
	out := make([]Airport, 0)
	for _, a := range airports {
		if strings.Contains(strings.ToLower(a.Code), q) ||
			strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.City), q) {
			out = append(out, a)
		}
	}
	return out
}
