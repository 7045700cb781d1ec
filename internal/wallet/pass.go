package wallet

import (
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/money"
)

// Kind identifies what a pass carries.
type Kind string

const (
	KindShopping Kind = "shopping"
	KindInsights Kind = "insights"
	KindRecipe   Kind = "recipe"
	KindReceipt  Kind = "receipt"
)

// Status is a pass's lifecycle state. Deletion is removal, not a status.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Pass is a portable summary artifact eligible for issuance to an external
// wallet. Owned exclusively by the Manager; mutated only through it.
type Pass struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Items       []string `json:"items,omitempty"`
	// Amount is the monetary figure the pass summarizes, when it has one.
	Amount *money.Money `json:"amount,omitempty"`
	// Store is the originating store name for receipt passes.
	Store string `json:"store,omitempty"`
	// SourceID weakly references the receipt or analytics snapshot this
	// pass was derived from. Lookup only; the source may be gone.
	SourceID  string    `json:"source_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    Status    `json:"status"`
	// ExternalID is the wallet provider's issuance id, set exactly once
	// after a successful issue. Empty means never issued.
	ExternalID string `json:"external_id,omitempty"`
}
