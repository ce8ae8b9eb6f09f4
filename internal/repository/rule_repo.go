package repository

import (
	"context"

	"github.com/medtravel/offer-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// RuleRepository - interface for reading supplier price rules. Rules are
// written by the supplier-management workflow; this service only reads them.
type RuleRepository interface {
	GetActiveRules(ctx context.Context, procedureName string, countries []string) ([]models.PriceRule, error)
}

// PostgresRuleRepository - RuleRepository implementation for the database.
type PostgresRuleRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresRuleRepository creates a new PostgresRuleRepository instance.
func NewPostgresRuleRepository(db *pgxpool.Pool) *PostgresRuleRepository {
	return &PostgresRuleRepository{DB: db}
}

// GetActiveRules returns active rules for a procedure restricted to the given
// countries. Scoping happens here so the in-memory filter only sees a bounded
// candidate set.
func (r *PostgresRuleRepository) GetActiveRules(ctx context.Context, procedureName string, countries []string) ([]models.PriceRule, error) {
	query := `SELECT id, supplier_username, procedure_name, active, region, sessions, country, cities, currency, price_min, price_max, created_at
	          FROM price_rule
	          WHERE active = true AND procedure_name = $1 AND country = ANY($2)
	          ORDER BY created_at`

	rows, err := r.DB.Query(ctx, query, procedureName, pq.Array(countries))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.PriceRule
	for rows.Next() {
		var rule models.PriceRule
		if err := rows.Scan(
			&rule.ID,
			&rule.SupplierUsername,
			&rule.ProcedureName,
			&rule.Active,
			&rule.Region,
			&rule.Sessions,
			&rule.Country,
			&rule.Cities,
			&rule.Currency,
			&rule.PriceMin,
			&rule.PriceMax,
			&rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
