package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/widoyo/pbase-gto/internal/domain"
)

const deviceColumns = `sn, location_id, tipping_factor, sonic_offset,
	humidity_corr, temperature_corr, battery_corr, latest_sampling`

// DeviceBySN looks up one device's calibration. Unknown serials return an
// error wrapping domain.ErrUnknownDevice.
func (s *Store) DeviceBySN(ctx context.Context, sn string) (domain.Device, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+deviceColumns+`
FROM devices
WHERE sn = $1`, sn)

	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Device{}, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, sn)
	}
	if err != nil {
		return domain.Device{}, fmt.Errorf("device by sn: %w", err)
	}
	return d, nil
}

// ListDevices returns every registered device ordered by serial.
func (s *Store) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+deviceColumns+`
FROM devices
ORDER BY sn`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// InsertDevice registers a serial discovered on the vendor roster. No-op
// when the serial already exists; calibration stays at defaults until the
// console fills it in.
func (s *Store) InsertDevice(ctx context.Context, sn string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO devices (sn) VALUES ($1)
ON CONFLICT (sn) DO NOTHING`, sn)
	if err != nil {
		return false, fmt.Errorf("insert device: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanDevice(row pgx.Row) (domain.Device, error) {
	var d domain.Device
	err := row.Scan(
		&d.SN, &d.LocationID, &d.TippingFactor, &d.SonicOffset,
		&d.HumidityCorr, &d.TemperatureCorr, &d.BatteryCorr, &d.LatestSampling,
	)
	return d, err
}
