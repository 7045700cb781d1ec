package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateFormats are the non-ISO layouts extractors commonly emit.
var dateFormats = []string{
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02/01/2006",
}

// parseExtractionJSON parses the JSON response from a vision model into an
// Extraction, tolerating markdown fences and prose around the object.
func parseExtractionJSON(text string) (*Extraction, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var data Extraction
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.StoreName = strings.TrimSpace(data.StoreName)
	data.Date = normalizeDate(data.Date)
	data.Currency = strings.ToUpper(strings.TrimSpace(data.Currency))

	// Clamp confidence into [0,1]; some models report percentages.
	if data.Confidence > 1 {
		data.Confidence = data.Confidence / 100
	}
	if data.Confidence < 0 {
		data.Confidence = 0
	}
	if data.Confidence > 1 {
		data.Confidence = 1
	}

	for i := range data.Items {
		data.Items[i].Name = strings.TrimSpace(data.Items[i].Name)
	}

	return &data, nil
}

// normalizeDate rewrites a date into ISO 8601. An unparseable or missing
// date is left empty; normalization decides whether that is fatal.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d.Format("2006-01-02")
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, raw); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}
