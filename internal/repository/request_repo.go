package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medtravel/offer-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestRepository - interface for working with buyer requests.
type RequestRepository interface {
	CreateRequest(ctx context.Context, matchReq models.MatchRequest) (*models.Request, error)
	GetRequestByID(ctx context.Context, requestID string) (*models.Request, error)
	GetUserRequests(ctx context.Context, limit, offset int, username string) ([]models.Request, error)
}

// PostgresRequestRepository - RequestRepository implementation for the database.
type PostgresRequestRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresRequestRepository creates a new PostgresRequestRepository instance.
func NewPostgresRequestRepository(db *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{DB: db}
}

// CreateRequest persists a new request. Matching-relevant fields are never
// updated afterwards.
func (r *PostgresRequestRepository) CreateRequest(ctx context.Context, matchReq models.MatchRequest) (*models.Request, error) {
	newRequest := models.Request{
		ID:                uuid.New().String(),
		Username:          matchReq.Username,
		ProcedureName:     matchReq.ProcedureName,
		ProcedureCategory: matchReq.ProcedureCategory,
		Region:            matchReq.Region,
		Sessions:          matchReq.Sessions,
		SelectedCountries: matchReq.SelectedCountries,
		CitiesByCountry:   matchReq.CitiesByCountry,
		Gender:            matchReq.Gender,
		Notes:             matchReq.Notes,
		Status:            models.OpenRequest,
		CreatedAt:         time.Now().UTC(),
	}
	if newRequest.CitiesByCountry == nil {
		newRequest.CitiesByCountry = map[string][]string{}
	}

	citiesJSON, err := json.Marshal(newRequest.CitiesByCountry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode city selections: %w", err)
	}

	_, err = r.DB.Exec(ctx, `
       INSERT INTO request (id, username, procedure_name, procedure_category, region, sessions, selected_countries, cities_by_country, gender, notes, status, created_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
   `,
		newRequest.ID,
		newRequest.Username,
		newRequest.ProcedureName,
		newRequest.ProcedureCategory,
		newRequest.Region,
		newRequest.Sessions,
		newRequest.SelectedCountries,
		citiesJSON,
		newRequest.Gender,
		newRequest.Notes,
		newRequest.Status,
		newRequest.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}
	return &newRequest, nil
}

// GetRequestByID returns a single request.
func (r *PostgresRequestRepository) GetRequestByID(ctx context.Context, requestID string) (*models.Request, error) {
	var request models.Request
	var citiesJSON []byte
	query := `SELECT id, username, procedure_name, procedure_category, region, sessions, selected_countries, cities_by_country, gender, notes, status, created_at
	          FROM request WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, requestID).Scan(
		&request.ID,
		&request.Username,
		&request.ProcedureName,
		&request.ProcedureCategory,
		&request.Region,
		&request.Sessions,
		&request.SelectedCountries,
		&citiesJSON,
		&request.Gender,
		&request.Notes,
		&request.Status,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(citiesJSON, &request.CitiesByCountry); err != nil {
		return nil, fmt.Errorf("failed to decode city selections: %w", err)
	}
	return &request, nil
}

// GetUserRequests returns the requests created by a user.
func (r *PostgresRequestRepository) GetUserRequests(ctx context.Context, limit, offset int, username string) ([]models.Request, error) {
	query := `SELECT id, username, procedure_name, procedure_category, region, sessions, selected_countries, cities_by_country, gender, notes, status, created_at
              FROM request WHERE username = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var request models.Request
		var citiesJSON []byte
		if err := rows.Scan(
			&request.ID,
			&request.Username,
			&request.ProcedureName,
			&request.ProcedureCategory,
			&request.Region,
			&request.Sessions,
			&request.SelectedCountries,
			&citiesJSON,
			&request.Gender,
			&request.Notes,
			&request.Status,
			&request.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(citiesJSON, &request.CitiesByCountry); err != nil {
			return nil, fmt.Errorf("failed to decode city selections: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, nil
}
