package candidate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository reads candidates from a PostGIS-enabled PostgreSQL table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostGIS candidate repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Name implements Source.
func (r *PostgresRepository) Name() string { return "postgis" }

const candidateColumns = `
		id, name, source_type,
		ST_Y(location::geometry) AS lat,
		ST_X(location::geometry) AS lng,
		starts_at, ends_at, rating, price, tags, detour_km,
		max_vehicle_length_m, max_vehicle_height_m, max_vehicle_weight_t`

// Nearby implements Source.
func (r *PostgresRepository) Nearby(ctx context.Context, area Area) ([]RawRecord, error) {
	query := `
		SELECT` + candidateColumns + `
		FROM candidates
		WHERE ST_DWithin(
			location,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography), id
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query,
		area.Center.Lng,
		area.Center.Lat,
		area.RadiusKm*1000,
		limitOrDefault(area.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query nearby candidates: %w", err)
	}
	return scanRecords(rows)
}

// AlongCorridor implements Source.
func (r *PostgresRepository) AlongCorridor(ctx context.Context, corridor CorridorArea) ([]RawRecord, error) {
	query := `
		SELECT` + candidateColumns + `
		FROM candidates
		WHERE ST_DWithin(
			location,
			ST_MakeLine(
				ST_SetSRID(ST_MakePoint($1, $2), 4326),
				ST_SetSRID(ST_MakePoint($3, $4), 4326)
			)::geography,
			$5
		)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography), id
		LIMIT $6
	`

	rows, err := r.pool.Query(ctx, query,
		corridor.Start.Lng,
		corridor.Start.Lat,
		corridor.End.Lng,
		corridor.End.Lat,
		corridor.BufferKm*1000,
		limitOrDefault(corridor.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query corridor candidates: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]RawRecord, error) {
	defer rows.Close()

	var records []RawRecord
	for rows.Next() {
		var (
			rec        RawRecord
			name       *string
			sourceType *string
			price      *string
			startsAt   *time.Time
			endsAt     *time.Time
			lat, lng   float64
		)
		err := rows.Scan(
			&rec.ID,
			&name,
			&sourceType,
			&lat,
			&lng,
			&startsAt,
			&endsAt,
			&rec.Rating,
			&price,
			&rec.Tags,
			&rec.DetourKm,
			&rec.MaxVehicleLengthM,
			&rec.MaxVehicleHeightM,
			&rec.MaxVehicleWeightT,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		rec.Lat = &lat
		rec.Lng = &lng
		rec.StartsAt = startsAt
		rec.EndsAt = endsAt
		if name != nil {
			rec.Name = *name
		}
		if sourceType != nil {
			rec.SourceType = *sourceType
		}
		if price != nil {
			rec.Price = *price
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return records, nil
}
