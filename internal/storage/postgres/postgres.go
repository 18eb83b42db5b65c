// Package postgres implements the donation data source on PostgreSQL, for
// deployments that host the merged dataset alongside other services.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"donations/internal/core"
	"donations/internal/source"
)

// The table is created by loading the published dataset with its original,
// quoted column names.
const (
	aggregateQuery = `
SELECT "Institution_name", COALESCE(SUM("Foreign_Gift_Amount"), 0)::float8 AS total
FROM donation_data
WHERE "Institution_name" IS NOT NULL AND "Institution_name" <> ''
GROUP BY "Institution_name"
ORDER BY total DESC, MIN("Index") ASC`

	timeseriesQuery = `
SELECT "Foreign_Gift_Received_Date"::text, "Foreign_Gift_Amount"::float8, "Country_of_Giftor", "Giftor_Name"
FROM donation_data
WHERE "Institution_name" = $1
ORDER BY "Index"`

	geoQuery = `
SELECT "Foreign_Gift_Received_Date"::text, "Foreign_Gift_Amount"::float8, "Country_of_Giftor",
       "Country_Latitude"::float8, "Country_Longitude"::float8, "Score"::float8
FROM donation_data
WHERE "Institution_name" = $1
  AND "Country_Latitude" IS NOT NULL AND "Country_Longitude" IS NOT NULL`
)

type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ source.DonationSource = (*Repository)(nil)
	_ source.Pinger         = (*Repository)(nil)
)

// Open connects a pgx pool sized for read-only dashboard traffic.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) AggregateTotals(ctx context.Context) ([]core.AggregateRow, error) {
	rows, err := r.pool.Query(ctx, aggregateQuery)
	if err != nil {
		return nil, fmt.Errorf("query aggregate totals: %w", err)
	}
	defer rows.Close()

	var out []core.AggregateRow
	for rows.Next() {
		var (
			school string
			total  float64
		)
		if err := rows.Scan(&school, &total); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out = append(out, core.AggregateRow{School: school, Total: int64(math.Round(total))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	source.SortAggregates(out)
	return out, nil
}

func (r *Repository) Timeseries(ctx context.Context, school string) ([]core.DonationRecord, error) {
	rows, err := r.pool.Query(ctx, timeseriesQuery, school)
	if err != nil {
		return nil, fmt.Errorf("query timeseries for %q: %w", school, err)
	}
	defer rows.Close()

	var recs []core.DonationRecord
	for rows.Next() {
		var (
			date, country, donor *string
			amount               *float64
		)
		if err := rows.Scan(&date, &amount, &country, &donor); err != nil {
			return nil, fmt.Errorf("scan timeseries row: %w", err)
		}
		recs = append(recs, core.DonationRecord{
			School:       school,
			RawDate:      deref(date),
			Amount:       roundAmount(amount),
			DonorCountry: deref(country),
			Donor:        deref(donor),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeseries rows: %w", err)
	}

	out, dropped := source.ShapeTimeseries(recs)
	if dropped > 0 {
		slog.DebugContext(ctx, "Dropped donations with unparseable dates", "school", school, "count", dropped)
	}
	return out, nil
}

func (r *Repository) Geo(ctx context.Context, school string) ([]core.DonationRecord, error) {
	rows, err := r.pool.Query(ctx, geoQuery, school)
	if err != nil {
		return nil, fmt.Errorf("query geo for %q: %w", school, err)
	}
	defer rows.Close()

	var recs []core.DonationRecord
	for rows.Next() {
		var (
			date, country           *string
			amount, lat, lon, score *float64
		)
		if err := rows.Scan(&date, &amount, &country, &lat, &lon, &score); err != nil {
			return nil, fmt.Errorf("scan geo row: %w", err)
		}
		recs = append(recs, core.DonationRecord{
			School:       school,
			RawDate:      deref(date),
			Amount:       roundAmount(amount),
			DonorCountry: deref(country),
			Latitude:     lat,
			Longitude:    lon,
			Score:        score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geo rows: %w", err)
	}
	return source.FilterGeo(recs), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func roundAmount(f *float64) int64 {
	if f == nil {
		return 0
	}
	return int64(math.Round(*f))
}
