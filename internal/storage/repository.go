// Package storage implements the donation data source on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"donations/internal/core"
	"donations/internal/source"

	_ "modernc.org/sqlite"
)

const (
	aggregateQuery = `
SELECT "Institution_name", COALESCE(SUM("Foreign_Gift_Amount"), 0) AS total, MIN("Index") AS first_seen
FROM donation_data
WHERE "Institution_name" IS NOT NULL AND "Institution_name" <> ''
GROUP BY "Institution_name"
ORDER BY total DESC, first_seen ASC`

	timeseriesQuery = `
SELECT "Foreign_Gift_Received_Date", "Foreign_Gift_Amount", "Country_of_Giftor", "Giftor_Name"
FROM donation_data
WHERE "Institution_name" = ?
ORDER BY "Index"`

	geoQuery = `
SELECT "Foreign_Gift_Received_Date", "Foreign_Gift_Amount", "Country_of_Giftor",
       "Country_Latitude", "Country_Longitude", "Score"
FROM donation_data
WHERE "Institution_name" = ?
  AND "Country_Latitude" IS NOT NULL AND "Country_Longitude" IS NOT NULL`

	insertQuery = `
INSERT INTO donation_data (
    "Institution_name", "Giftor_Name", "Country_of_Giftor", "Foreign_Gift_Received_Date",
    "Foreign_Gift_Amount", "Score", "Country_Latitude", "Country_Longitude"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ source.DonationSource = (*SQLiteRepository)(nil)
	_ source.Pinger         = (*SQLiteRepository)(nil)
)

// OpenSQLite opens an existing dataset read-only. A missing file is an error:
// the dashboard has nothing to show without it.
func OpenSQLite(dbPath string) (*SQLiteRepository, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("donation database %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'donation_data'`).Scan(&name)
	if err != nil {
		db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("database %s has no donation_data table", dbPath)
		}
		return nil, fmt.Errorf("inspect schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// CreateSQLite opens the database for writing, creating the file and running
// the migrations as needed. Used by the importer.
func CreateSQLite(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Donation schema ready", "db_path", dbPath, "schema_version", version)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AggregateTotals implements source.DonationSource
func (r *SQLiteRepository) AggregateTotals(ctx context.Context) ([]core.AggregateRow, error) {
	rows, err := r.db.QueryContext(ctx, aggregateQuery)
	if err != nil {
		return nil, fmt.Errorf("query aggregate totals: %w", err)
	}
	defer rows.Close()

	var out []core.AggregateRow
	for rows.Next() {
		var (
			school    string
			total     float64
			firstSeen sql.NullInt64
		)
		if err := rows.Scan(&school, &total, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out = append(out, core.AggregateRow{School: school, Total: int64(math.Round(total))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	// Float totals can round into a tie the SQL ordering did not see
	source.SortAggregates(out)
	return out, nil
}

// Timeseries implements source.DonationSource
func (r *SQLiteRepository) Timeseries(ctx context.Context, school string) ([]core.DonationRecord, error) {
	rows, err := r.db.QueryContext(ctx, timeseriesQuery, school)
	if err != nil {
		return nil, fmt.Errorf("query timeseries for %q: %w", school, err)
	}
	defer rows.Close()

	var recs []core.DonationRecord
	for rows.Next() {
		var (
			date, country, donor sql.NullString
			amount               sql.NullFloat64
		)
		if err := rows.Scan(&date, &amount, &country, &donor); err != nil {
			return nil, fmt.Errorf("scan timeseries row: %w", err)
		}
		recs = append(recs, core.DonationRecord{
			School:       school,
			RawDate:      date.String,
			Amount:       int64(math.Round(amount.Float64)),
			DonorCountry: country.String,
			Donor:        donor.String,
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

// Geo implements source.DonationSource
func (r *SQLiteRepository) Geo(ctx context.Context, school string) ([]core.DonationRecord, error) {
	rows, err := r.db.QueryContext(ctx, geoQuery, school)
	if err != nil {
		return nil, fmt.Errorf("query geo for %q: %w", school, err)
	}
	defer rows.Close()

	var recs []core.DonationRecord
	for rows.Next() {
		var (
			date, country         sql.NullString
			amount, lat, lon, sco sql.NullFloat64
		)
		if err := rows.Scan(&date, &amount, &country, &lat, &lon, &sco); err != nil {
			return nil, fmt.Errorf("scan geo row: %w", err)
		}
		recs = append(recs, core.DonationRecord{
			School:       school,
			RawDate:      date.String,
			Amount:       int64(math.Round(amount.Float64)),
			DonorCountry: country.String,
			Latitude:     nullFloat(lat),
			Longitude:    nullFloat(lon),
			Score:        nullFloat(sco),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geo rows: %w", err)
	}
	return source.FilterGeo(recs), nil
}

// Insert writes records in a single transaction and returns how many were
// stored.
func (r *SQLiteRepository) Insert(ctx context.Context, records []core.DonationRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		date := rec.RawDate
		if date == "" && !rec.Date.IsZero() {
			date = rec.Date.Format("2006-01-02")
		}
		if _, err := stmt.ExecContext(ctx,
			rec.School, nullString(rec.Donor), nullString(rec.DonorCountry), nullString(date),
			rec.Amount, floatArg(rec.Score), floatArg(rec.Latitude), floatArg(rec.Longitude),
		); err != nil {
			return 0, fmt.Errorf("insert record %d (%s): %w", i, rec.School, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Donations imported", "count", len(records))
	return len(records), nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatArg(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
