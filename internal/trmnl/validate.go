package trmnl

import (
	"encoding/json"
	"fmt"
)

type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the structural requirements of a TRMNL payload. doc may be a
// Payload, a decoded JSON map or raw JSON bytes.
func Validate(doc any) Result {
	root, ok := normalize(doc)
	if !ok {
		return Result{Valid: false, Errors: []string{"Missing merge_variables"}}
	}

	mvRaw := root["merge_variables"]
	if !truthy(mvRaw) {
		return Result{Valid: false, Errors: []string{"Missing merge_variables"}}
	}
	mv, _ := mvRaw.(map[string]any)

	errs := make([]string, 0)
	if !truthy(mv["home_airport"]) {
		errs = append(errs, "Missing home_airport")
	}
	if !truthy(mv["last_updated"]) {
		errs = append(errs, "Missing last_updated")
	}

	dests, isArray := mv["destinations"].([]any)
	if !isArray {
		errs = append(errs, "destinations must be an array")
	} else {
		for i, raw := range dests {
			d, _ := raw.(map[string]any)
			if !truthy(d["code"]) {
				errs = append(errs, fmt.Sprintf("Destination %d: missing code", i))
			}
			if _, isNumber := d["current_price"].(float64); !isNumber {
				errs = append(errs, fmt.Sprintf("Destination %d: invalid current_price", i))
			}
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// normalize reduces any accepted input to a generic JSON object.
func normalize(doc any) (map[string]any, bool) {
	var raw []byte
	switch v := doc.(type) {
	case nil:
		return nil, false
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		raw = b
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
