package receipt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/money"
	"github.com/aryansanganti/receipt-wallet/internal/scanning"
)

// DefaultConfidenceThreshold is the extraction confidence below which a
// receipt is always marked for review.
const DefaultConfidenceThreshold = 0.6

// totalToleranceUnits is the arithmetic slack allowed between the declared
// total and subtotal+tax, in minor units.
const totalToleranceUnits = 1

// Normalizer turns raw extraction payloads into validated Receipts. The
// policy is to absorb anomalies as review flags and only reject input that
// is structurally unusable: a receipt is never lost to imperfect extraction.
type Normalizer struct {
	classifier          *Classifier
	confidenceThreshold float64
	idGenerator         IDGenerator
	timeSource          TimeSource
}

// NewNormalizer creates a Normalizer with the default confidence threshold.
func NewNormalizer(classifier *Classifier) *Normalizer {
	return NewNormalizerWithDeps(classifier, DefaultConfidenceThreshold, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewNormalizerWithThreshold creates a Normalizer with a custom confidence threshold.
func NewNormalizerWithThreshold(classifier *Classifier, confidenceThreshold float64) *Normalizer {
	return NewNormalizerWithDeps(classifier, confidenceThreshold, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewNormalizerWithDeps creates a Normalizer with custom dependencies for testing.
func NewNormalizerWithDeps(classifier *Classifier, confidenceThreshold float64, idGen IDGenerator, timeSrc TimeSource) *Normalizer {
	return &Normalizer{
		classifier:          classifier,
		confidenceThreshold: confidenceThreshold,
		idGenerator:         idGen,
		timeSource:          timeSrc,
	}
}

// Normalize validates an extraction and builds the canonical Receipt.
// Missing store name or date is a hard rejection (MalformedReceiptError);
// everything else degrades to needs_review.
func (n *Normalizer) Normalize(ex *scanning.Extraction, sourceRef string) (*Receipt, error) {
	var missing []string
	if ex.StoreName == "" {
		missing = append(missing, "store name")
	}
	date, err := time.Parse("2006-01-02", ex.Date)
	if ex.Date == "" || err != nil {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return nil, &MalformedReceiptError{Missing: missing}
	}

	receipt := &Receipt{
		ID:         n.idGenerator.Generate(),
		StoreName:  ex.StoreName,
		Date:       date,
		Currency:   ex.Currency,
		Confidence: ex.Confidence,
		SourceRef:  sourceRef,
		CreatedAt:  n.timeSource.Now(),
	}

	if receipt.Currency == "" {
		receipt.Currency = "USD"
		receipt.flagReview("currency missing from extraction")
	}

	receipt.Subtotal = n.parseAmount(receipt, ex.Subtotal, "subtotal")
	receipt.Tax = n.parseAmount(receipt, ex.Tax, "tax")
	receipt.Total = n.parseAmount(receipt, ex.Total, "total")

	for _, raw := range ex.Items {
		if raw.Name == "" {
			// A nameless line is unusable for classification or recall
			receipt.flagReview("unnamed line item dropped")
			continue
		}
		item := Item{Name: raw.Name, Quantity: raw.Quantity}
		if item.Quantity < 1 {
			item.Quantity = 1
			receipt.flagReview(fmt.Sprintf("quantity clamped to 1 for %q", raw.Name))
		}
		price, err := money.Parse(raw.UnitPrice, receipt.Currency)
		if err != nil {
			// Keep the item; a zero price is recoverable, a dropped item is not
			slog.Warn("Unparseable item price", "item", raw.Name, "error", err)
			price = money.Zero(receipt.Currency)
			receipt.flagReview(fmt.Sprintf("unparseable price for %q", raw.Name))
		}
		item.UnitPrice = price
		item.Category = n.classifier.Classify(item.Name)
		receipt.Items = append(receipt.Items, item)
	}

	declared := receipt.Subtotal.Units + receipt.Tax.Units
	if diff := receipt.Total.Units - declared; diff > totalToleranceUnits || diff < -totalToleranceUnits {
		receipt.flagReview("declared total does not match subtotal plus tax")
	}

	if receipt.Confidence < n.confidenceThreshold {
		receipt.flagReview(fmt.Sprintf("extraction confidence %.2f below threshold", receipt.Confidence))
	}

	return receipt, nil
}

// parseAmount parses a declared monetary field, flagging review and falling
// back to zero on failure.
func (n *Normalizer) parseAmount(r *Receipt, raw any, field string) money.Money {
	amount, err := money.Parse(raw, r.Currency)
	if err != nil {
		slog.Warn("Unparseable declared amount", "field", field, "error", err)
		r.flagReview(fmt.Sprintf("unparseable %s", field))
		return money.Zero(r.Currency)
	}
	return amount
}
