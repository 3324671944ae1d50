package domain

import "time"

const Currency = "EUR"

// FlightPrice is a single priced quote for a route on a given day.
type FlightPrice struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Airline     string    `json:"airline"`
	BookingSite string    `json:"bookingSite"`
	Timestamp   time.Time `json:"timestamp"`
}

// LiveQuote is the best itinerary a live search returned for a route and day.
type LiveQuote struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Date          string  `json:"date"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flightNumber,omitempty"`
	Airplane      string  `json:"airplane,omitempty"`
	DepartureTime string  `json:"departureTime,omitempty"`
	ArrivalTime   string  `json:"arrivalTime,omitempty"`
	TotalMinutes  int     `json:"totalMinutes"`
	Stops         int     `json:"stops"`
}
