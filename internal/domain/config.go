package domain

const (
	DefaultHomeAirport = "BER"
)

// DefaultDestinations are seeded for every newly observed user, in order.
var DefaultDestinations = []string{"JFK", "LIS", "BKK"}

// Configuration is the resolved per-user configuration.
type Configuration struct {
	HomeAirport     string   `json:"homeAirport"`
	Destinations    []string `json:"destinations"`
	TrmnlWebhookURL string   `json:"trmnlWebhookUrl,omitempty"`
}

func (c Configuration) HasWebhook() bool {
	return c.TrmnlWebhookURL != ""
}
