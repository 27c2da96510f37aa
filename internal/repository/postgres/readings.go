package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/widoyo/pbase-gto/internal/domain"
)

const readingColumns = `device_sn, location_id, sampling, rain, water_level,
	wind_speed, wind_direction, sun_radiation, humidity, temperature,
	battery, pressure, altitude, signal_quality, up_since, time_set_at`

// StoreReading inserts one canonical reading. The (device_sn, sampling)
// primary key makes redelivery a no-op: stored is false when the key
// already existed, and that is not an error. After a new row lands, the
// latest-reading pointers on the device and its location are refreshed in
// the same transaction.
func (s *Store) StoreReading(ctx context.Context, r domain.Reading) (stored bool, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, `
INSERT INTO readings (`+readingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (device_sn, sampling) DO NOTHING`,
		r.DeviceSN, r.LocationID, r.Sampling, r.Rain, r.WaterLevel,
		r.WindSpeed, r.WindDirection, r.SunRadiation, r.Humidity, r.Temperature,
		r.Battery, r.Pressure, r.Altitude, r.SignalQuality, r.UpSince, r.TimeSetAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert reading: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
UPDATE devices
SET latest_sampling = GREATEST(COALESCE(latest_sampling, $2), $2)
WHERE sn = $1`, r.DeviceSN, r.Sampling); err != nil {
		return false, fmt.Errorf("refresh device latest: %w", err)
	}
	if r.LocationID != nil {
		if _, err := tx.Exec(ctx, `
UPDATE locations
SET latest_sampling = GREATEST(COALESCE(latest_sampling, $2), $2)
WHERE id = $1`, *r.LocationID, r.Sampling); err != nil {
			return false, fmt.Errorf("refresh location latest: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// LatestReading returns the most recent reading for a location, or nil when
// the location has none.
func (s *Store) LatestReading(ctx context.Context, locationID int64) (*domain.Reading, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+readingColumns+`
FROM readings
WHERE location_id = $1
ORDER BY sampling DESC
LIMIT 1`, locationID)

	r, err := scanReading(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &r, nil
}

// SumRainInWindow sums rainfall and counts samples for a location over
// [start, end], boundaries inclusive.
func (s *Store) SumRainInWindow(ctx context.Context, locationID int64, start, end time.Time) (sum float64, count int, err error) {
	err = s.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(rain), 0), COUNT(*)
FROM readings
WHERE location_id = $1 AND sampling BETWEEN $2 AND $3`,
		locationID, start, end).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("sum rain: %w", err)
	}
	return sum, count, nil
}

// CountInWindow counts a location's samples over [start, end], boundaries
// inclusive.
func (s *Store) CountInWindow(ctx context.Context, locationID int64, start, end time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM readings
WHERE location_id = $1 AND sampling BETWEEN $2 AND $3`,
		locationID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

// ReadingsInWindow lists a location's readings over [start, end] in
// sampling order, for bulk forwarding.
func (s *Store) ReadingsInWindow(ctx context.Context, locationID int64, start, end time.Time) ([]domain.Reading, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+readingColumns+`
FROM readings
WHERE location_id = $1 AND sampling BETWEEN $2 AND $3
ORDER BY sampling ASC`, locationID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

func scanReading(row pgx.Row) (domain.Reading, error) {
	var r domain.Reading
	err := row.Scan(
		&r.DeviceSN, &r.LocationID, &r.Sampling, &r.Rain, &r.WaterLevel,
		&r.WindSpeed, &r.WindDirection, &r.SunRadiation, &r.Humidity, &r.Temperature,
		&r.Battery, &r.Pressure, &r.Altitude, &r.SignalQuality, &r.UpSince, &r.TimeSetAt,
	)
	return r, err
}
