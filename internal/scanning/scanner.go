package scanning

// ExtractedItem is a single line item as reported by the vision model.
// UnitPrice is left loosely typed because extractors return whatever the
// receipt print let them read: floats, quoted strings, nulls.
type ExtractedItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice any    `json:"unit_price"`
}

// Extraction is the raw structured payload produced by a vision model for
// one receipt image. Monetary fields are untyped for the same reason as
// ExtractedItem; normalization turns them into exact Money values.
type Extraction struct {
	StoreName  string          `json:"store_name"`
	Date       string          `json:"date"` // ISO 8601 format
	Currency   string          `json:"currency"`
	Subtotal   any             `json:"subtotal"`
	Tax        any             `json:"tax"`
	Total      any             `json:"total"`
	Items      []ExtractedItem `json:"items"`
	Confidence float64         `json:"confidence"`
}

// Scanner defines the interface for receipt scanning operations. Any
// extractor that can fill an Extraction from an image is substitutable.
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts its contents
	ScanReceipt(imageData []byte, contentType string) (*Extraction, error)
	// Close closes the scanner and releases resources
	Close() error
}
