package models

import "time"

// PriceRule represents a supplier's standing offer template for a procedure
// in one country. An empty Cities list means the rule serves any city; a nil
// Region or Sessions means the rule does not constrain that dimension.
// Rules are owned and mutated by the supplier workflow; this service only
// reads active ones.
type PriceRule struct {
	ID               string    `json:"id"`
	SupplierUsername string    `json:"supplier_username"`
	ProcedureName    string    `json:"procedure_name"`
	Active           bool      `json:"active"`
	Region           *string   `json:"region"`
	Sessions         *int      `json:"sessions"`
	Country          string    `json:"country"`
	Cities           []string  `json:"cities"`
	Currency         string    `json:"currency"`
	PriceMin         int64     `json:"price_min"`
	PriceMax         int64     `json:"price_max"`
	CreatedAt        time.Time `json:"created_at"`
}
