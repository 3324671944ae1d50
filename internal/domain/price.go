package domain

import "time"

// PriceRecord is an immutable entry of a user's price ledger.
type PriceRecord struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"-"`
	DestinationCode string    `json:"destinationCode"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	Airline         string    `json:"airline"`
	BookingSite     string    `json:"bookingSite"`
	RecordedAt      time.Time `json:"timestamp"`
}

// PriceHistory is the result of a windowed history lookup: either
// RecordedHistory or EmptyHistory.
type PriceHistory interface {
	isPriceHistory()
}

type RecordedHistory struct {
	Records []PriceRecord
}

type EmptyHistory struct{}

func (RecordedHistory) isPriceHistory() {}
func (EmptyHistory) isPriceHistory()    {}

// NewPriceHistory wraps records, returning EmptyHistory when there are none.
func NewPriceHistory(records []PriceRecord) PriceHistory {
	if len(records) == 0 {
		return EmptyHistory{}
	}
	return RecordedHistory{Records: records}
}

// Records returns the underlying records of any history variant.
func Records(h PriceHistory) []PriceRecord {
	if r, ok := h.(RecordedHistory); ok {
		return r.Records
	}
	return []PriceRecord{}
}

// DestinationSnapshot is the derived current view of a tracked destination.
// Zero values mean the field is unknown.
type DestinationSnapshot struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"currentPrice"`
	Trend        string    `json:"trend"`
	BestAirline  string    `json:"bestAirline"`
	BestSite     string    `json:"bestSite"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
