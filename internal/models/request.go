package models

import "time"

type RequestStatus string // Lifecycle status of a buyer request

// OpenRequest is the only status this service writes; requests are closed
// by a downstream workflow.
const OpenRequest RequestStatus = "open"

// Request represents one buyer inquiry for a procedure across countries/cities.
// Matching-relevant fields are immutable once the request is created.
type Request struct {
	ID                string              `json:"id"`
	Username          string              `json:"-"`
	ProcedureName     string              `json:"procedure_name"`
	ProcedureCategory *string             `json:"procedure_category"`
	Region            *string             `json:"region"`
	Sessions          *int                `json:"sessions"`
	SelectedCountries []string            `json:"selected_countries"`
	CitiesByCountry   map[string][]string `json:"cities_by_country"`
	Gender            *string             `json:"gender"`
	Notes             *string             `json:"notes"`
	Status            RequestStatus       `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
}

// MatchRequest represents the inbound payload for submitting a request.
type MatchRequest struct {
	Username          string              `json:"username" validate:"required"`
	ProcedureName     string              `json:"procedure_name" validate:"required"`
	ProcedureCategory *string             `json:"procedure_category"`
	Region            *string             `json:"region"`
	Sessions          *int                `json:"sessions" validate:"omitempty,gt=0"`
	SelectedCountries []string            `json:"selected_countries" validate:"required,min=1,dive,required"`
	CitiesByCountry   map[string][]string `json:"cities_by_country"`
	Gender            *string             `json:"gender"`
	Notes             *string             `json:"notes"`
}

// MatchResult is the response for a submitted request. OffersError is set
// only when the request was saved but offer generation failed.
type MatchResult struct {
	Request     *Request `json:"request"`
	Offers      []Offer  `json:"offers"`
	OffersError string   `json:"offers_error,omitempty"`
}
