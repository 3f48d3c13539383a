package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a profile by user ID.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT
			user_id, interests, environments, pace, budget_ceiling,
			vehicle_length_m, vehicle_height_m, vehicle_weight_t,
			created_at, updated_at
		FROM traveller_preferences
		WHERE user_id = $1
	`

	var (
		p             Profile
		pace          string
		budgetCeiling string
		lengthM       *float64
		heightM       *float64
		weightT       *float64
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Preferences.Interests,
		&p.Preferences.Environments,
		&pace,
		&budgetCeiling,
		&lengthM,
		&heightM,
		&weightT,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	p.Preferences.Pace = planner.Pace(pace)
	p.Preferences.BudgetCeiling = candidate.PriceTier(budgetCeiling)
	if lengthM != nil || heightM != nil || weightT != nil {
		p.Preferences.Vehicle = &candidate.Vehicle{
			LengthM: deref(lengthM),
			HeightM: deref(heightM),
			WeightT: deref(weightT),
		}
	}
	return &p, nil
}

// Upsert creates or replaces a profile. created_at is kept on update.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO traveller_preferences (
			user_id, interests, environments, pace, budget_ceiling,
			vehicle_length_m, vehicle_height_m, vehicle_weight_t,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			interests = EXCLUDED.interests,
			environments = EXCLUDED.environments,
			pace = EXCLUDED.pace,
			budget_ceiling = EXCLUDED.budget_ceiling,
			vehicle_length_m = EXCLUDED.vehicle_length_m,
			vehicle_height_m = EXCLUDED.vehicle_height_m,
			vehicle_weight_t = EXCLUDED.vehicle_weight_t,
			updated_at = EXCLUDED.updated_at
	`

	var lengthM, heightM, weightT *float64
	if v := p.Preferences.Vehicle; v != nil {
		lengthM, heightM, weightT = &v.LengthM, &v.HeightM, &v.WeightT
	}

	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		nonNil(p.Preferences.Interests),
		nonNil(p.Preferences.Environments),
		string(p.Preferences.Pace),
		string(p.Preferences.BudgetCeiling),
		lengthM,
		heightM,
		weightT,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM traveller_preferences WHERE user_id = $1`, userID)
	return err
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
