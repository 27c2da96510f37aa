// Package domain models hydro-meteorological logger telemetry.
//
// # Data Source
//
// Readings originate from remote loggers (rain tipping buckets, ultrasonic
// water-level sensors, climate stations) that publish one JSON payload per
// 5-minute sampling slot. Payloads arrive either continuously over the raw
// message bus or in bulk from the vendor's historical HTTP API.
//
// # Payload Conventions
//
// Device identifier:
//
//	"<class>/<serial>"  →  e.g. "arr/1809-12". The class prefix names the
//	hardware family; only the serial is used to look up calibration.
//
// Measurement fields are present only when the device type produces them.
// Absence is significant: a rain gauge never reports "distance", and a
// missing "tick" is not a zero-tick sample. Unrecognized fields are ignored
// so new sensor firmware never breaks ingestion.
//
// Calibration:
//
//	Rain:        rain_mm = tipping_factor × tick         (factor default 0.2)
//	Water level: wlev_cm = sonic_offset − distance_mm/10 (offset default 100,
//	             the sensor mounting height in cm above the zero gauge)
//	Corrected:   humidity, temperature and battery each carry an additive
//	             per-device correction offset, default 0, applied once.
//
// Timestamps are epoch seconds in the payload and UTC calendar times after
// transformation. "up_since" and "time_set_at" are device housekeeping
// instants and stay unset when the payload omits them.
//
// # Idempotency
//
// A reading is uniquely keyed by (device serial, sampling time). The storage
// layer enforces the key with a unique constraint, so redelivery over an
// at-least-once transport collapses to a no-op rather than a duplicate row.
//
// # Reporting Windows
//
// The rainfall "day" starts at 07:00 local time; before 07:00 the window
// anchors at 07:00 of the previous calendar day. Data-arrival completeness
// uses the civil day 00:00–23:56 and expects 288 samples (one per 5-minute
// slot). All window arithmetic happens in the location's IANA timezone and
// is converted to UTC only for storage queries. See [RainfallWindow] and
// [CompletenessWindow].
package domain
