package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/medtravel/offer-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OfferRepository - interface for working with offers.
type OfferRepository interface {
	UpsertOffers(ctx context.Context, offers []models.Offer) error
	GetRequestOffers(ctx context.Context, requestID string) ([]models.Offer, error)
	CreateManualOffer(ctx context.Context, offerReq models.ManualOfferRequest) (*models.Offer, error)
}

// PostgresOfferRepository - OfferRepository implementation for the database.
type PostgresOfferRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresOfferRepository creates a new PostgresOfferRepository instance.
func NewPostgresOfferRepository(db *pgxpool.Pool) *PostgresOfferRepository {
	return &PostgresOfferRepository{DB: db}
}

const upsertOfferQuery = `
	INSERT INTO offer (id, request_id, supplier_username, source, country, city, currency, price_min, price_max, status, note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (request_id, supplier_username, country, city, source)
	DO UPDATE SET currency = EXCLUDED.currency, price_min = EXCLUDED.price_min, price_max = EXCLUDED.price_max, status = EXCLUDED.status`

// UpsertOffers merges candidate offers into the store in one batch. The
// conflict target is the offer identity tuple, so re-running generation for
// the same request never creates duplicate rows. pgx runs the batch inside
// an implicit transaction. An empty batch is a no-op.
func (r *PostgresOfferRepository) UpsertOffers(ctx context.Context, offers []models.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, offer := range offers {
		batch.Queue(upsertOfferQuery,
			uuid.New().String(),
			offer.RequestID,
			offer.SupplierUsername,
			offer.Source,
			offer.Country,
			offer.City,
			offer.Currency,
			offer.PriceMin,
			offer.PriceMax,
			offer.Status,
			offer.Note,
			now)
	}

	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()

	for range offers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert offers: %w", err)
		}
	}
	return nil
}

// GetRequestOffers returns all persisted offers for a request, both
// auto-generated and manually submitted.
func (r *PostgresOfferRepository) GetRequestOffers(ctx context.Context, requestID string) ([]models.Offer, error) {
	query := `SELECT id, request_id, supplier_username, source, country, city, currency, price_min, price_max, status, note, created_at
	          FROM offer WHERE request_id = $1 ORDER BY created_at, country, city`

	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		if err := rows.Scan(
			&offer.ID,
			&offer.RequestID,
			&offer.SupplierUsername,
			&offer.Source,
			&offer.Country,
			&offer.City,
			&offer.Currency,
			&offer.PriceMin,
			&offer.PriceMax,
			&offer.Status,
			&offer.Note,
			&offer.CreatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

const manualOfferQuery = `
	INSERT INTO offer (id, request_id, supplier_username, source, country, city, currency, price_min, price_max, status, note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (request_id, supplier_username, country, city, source)
	DO UPDATE SET currency = EXCLUDED.currency, price_min = EXCLUDED.price_min, price_max = EXCLUDED.price_max, status = EXCLUDED.status, note = EXCLUDED.note
	RETURNING id, created_at`

// CreateManualOffer persists a supplier-submitted offer. Manual offers share
// the offer table but carry their own source tag, so they never collide with
// auto-generated rows for the same slot. Resubmitting the same slot merges
// into the existing row, updating the note along with the prices; the stored
// id and created_at are read back so the returned offer matches the row.
func (r *PostgresOfferRepository) CreateManualOffer(ctx context.Context, offerReq models.ManualOfferRequest) (*models.Offer, error) {
	city := offerReq.City
	if city == "" {
		city = models.CityUnspecified
	}
	newOffer := models.Offer{
		ID:               uuid.New().String(),
		RequestID:        offerReq.RequestID,
		SupplierUsername: offerReq.Username,
		Source:           models.ManualOffer,
		Country:          offerReq.Country,
		City:             city,
		Currency:         offerReq.Currency,
		PriceMin:         offerReq.PriceMin,
		PriceMax:         offerReq.PriceMax,
		Status:           models.SentOffer,
		Note:             offerReq.Note,
		CreatedAt:        time.Now().UTC(),
	}

	err := r.DB.QueryRow(ctx, manualOfferQuery,
		newOffer.ID,
		newOffer.RequestID,
		newOffer.SupplierUsername,
		newOffer.Source,
		newOffer.Country,
		newOffer.City,
		newOffer.Currency,
		newOffer.PriceMin,
		newOffer.PriceMax,
		newOffer.Status,
		newOffer.Note,
		newOffer.CreatedAt).Scan(&newOffer.ID, &newOffer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert offer: %w", err)
	}
	return &newOffer, nil
}
