package receipt

import (
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/money"
)

// Category is a spending category assigned to a line item after extraction.
type Category string

const (
	CategoryProduce      Category = "Produce"
	CategoryDairy        Category = "Dairy"
	CategoryBakery       Category = "Bakery"
	CategoryMeat         Category = "Meat"
	CategoryPantry       Category = "Pantry"
	CategoryBeverages    Category = "Beverages"
	CategorySnacks       Category = "Snacks"
	CategoryHousehold    Category = "Household"
	CategoryPersonalCare Category = "Personal Care"
	CategoryOther        Category = "Other"
)

// Item is a single purchased line on a receipt.
type Item struct {
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	Category  Category    `json:"category"`
}

// LineTotal is always recomputed from quantity and unit price; the value
// printed on the receipt is never trusted.
func (i Item) LineTotal() money.Money {
	return i.UnitPrice.MulInt(i.Quantity)
}

// Receipt is a normalized financial record built from one extraction.
// Immutable after creation except for the review flag; never deleted.
type Receipt struct {
	ID            string      `json:"id"`
	StoreName     string      `json:"store_name"`
	Date          time.Time   `json:"date"`
	Currency      string      `json:"currency"`
	Subtotal      money.Money `json:"subtotal"`
	Tax           money.Money `json:"tax"`
	Total         money.Money `json:"total"`
	Items         []Item      `json:"items"`
	Confidence    float64     `json:"confidence"`
	SourceRef     string      `json:"source_ref,omitempty"` // opaque handle to the original image
	NeedsReview   bool        `json:"needs_review"`
	ReviewReasons []string    `json:"review_reasons,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ItemsTotal sums the recomputed line totals.
func (r *Receipt) ItemsTotal() money.Money {
	total := money.Zero(r.Currency)
	for _, item := range r.Items {
		total.Units += item.LineTotal().Units
	}
	return total
}

// flagReview marks the receipt for review with a reason. Reasons are
// deduplicated so repeated anomalies of the same kind read cleanly.
func (r *Receipt) flagReview(reason string) {
	r.NeedsReview = true
	for _, existing := range r.ReviewReasons {
		if existing == reason {
			return
		}
	}
	r.ReviewReasons = append(r.ReviewReasons, reason)
}
