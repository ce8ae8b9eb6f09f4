package models

import "time"

type (
	OfferSource string // Origin of an offer
	OfferStatus string // Status of an offer
)

const (
	AutoOffer   OfferSource = "auto"   // Generated by the matching engine
	ManualOffer OfferSource = "manual" // Submitted by a supplier directly

	// SentOffer is the only status this service writes; acceptance and
	// decline belong to the downstream negotiation workflow.
	SentOffer OfferStatus = "sent"

	// CityUnspecified is stored when the request named no cities for the
	// offer's country. Kept as a literal so the identity tuple stays five
	// NOT NULL columns.
	CityUnspecified = "unspecified"
)

// Offer represents one concrete quote for a request. The tuple
// (request_id, supplier_username, country, city, source) is its unique
// identity; re-running generation merges into the existing row.
type Offer struct {
	ID               string      `json:"id"`
	RequestID        string      `json:"request_id"`
	SupplierUsername string      `json:"supplier_username"`
	Source           OfferSource `json:"source"`
	Country          string      `json:"country"`
	City             string      `json:"city"`
	Currency         string      `json:"currency"`
	PriceMin         int64       `json:"price_min"`
	PriceMax         int64       `json:"price_max"`
	Status           OfferStatus `json:"status"`
	Note             *string     `json:"note"`
	CreatedAt        time.Time   `json:"created_at"`
}

// ManualOfferRequest represents the payload for a supplier submitting an
// offer outside the matching engine.
type ManualOfferRequest struct {
	Username  string  `json:"username" validate:"required"`
	RequestID string  `json:"request_id" validate:"required"`
	Country   string  `json:"country" validate:"required"`
	City      string  `json:"city"`
	Currency  string  `json:"currency" validate:"required"`
	PriceMin  int64   `json:"price_min" validate:"gte=0"`
	PriceMax  int64   `json:"price_max" validate:"gtefield=PriceMin"`
	Note      *string `json:"note"`
}
