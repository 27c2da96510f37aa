package domain

import (
	"time"
)

// RawPayload is one unprocessed logger sample as published on the raw bus
// or returned by the vendor's historical API. Every measurement field is a
// pointer: nil means the device did not report it, which is different from
// reporting zero.
type RawPayload struct {
	Device   string `json:"device"`   // "<class>/<serial>"
	Sampling int64  `json:"sampling"` // epoch seconds

	Tick          *int     `json:"tick,omitempty"`
	Distance      *float64 `json:"distance,omitempty"` // millimeters to water surface
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty"`
	SunRadiation  *float64 `json:"sun_radiation,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Battery       *float64 `json:"battery,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	Altitude      *float64 `json:"altitude,omitempty"`
	SignalQuality *float64 `json:"signal_quality,omitempty"`
	UpSince       *int64   `json:"up_since,omitempty"`    // epoch seconds
	TimeSetAt     *int64   `json:"time_set_at,omitempty"` // epoch seconds
}

// Reading is the canonical, calibrated form of one sample. At most one
// Reading exists per (DeviceSN, Sampling); it is never mutated after
// creation.
type Reading struct {
	DeviceSN   string
	LocationID *int64
	Sampling   time.Time // UTC

	Rain          *float64 // mm accumulated in the 5-minute slot
	WaterLevel    *float64 // cm above the zero gauge
	WindSpeed     *float64
	WindDirection *float64
	SunRadiation  *float64
	Humidity      *float64
	Temperature   *float64
	Battery       *float64
	Pressure      *float64
	Altitude      *float64
	SignalQuality *float64
	UpSince       *time.Time
	TimeSetAt     *time.Time
}

// Device carries the per-logger calibration parameters and the location the
// logger is installed at. Owned by the management console; read-only here.
type Device struct {
	SN         string
	LocationID *int64 // nil while the logger is unassigned

	TippingFactor   *float64 // mm of rain per bucket tip, default 0.2
	SonicOffset     *float64 // mounting height in cm, default 100
	HumidityCorr    *float64 // additive, default 0
	TemperatureCorr *float64
	BatteryCorr     *float64

	LatestSampling *time.Time
}

// Category classifies a location by the kind of station installed there.
type Category string

const (
	CategoryRainGauge  Category = "rain-gauge"
	CategoryWaterLevel Category = "water-level"
	CategoryClimate    Category = "climate"
	CategoryOther      Category = "other"
)

// Label returns the human form used in report bodies.
func (c Category) Label() string {
	switch c {
	case CategoryRainGauge:
		return "Rain Gauge"
	case CategoryWaterLevel:
		return "Water Level"
	case CategoryClimate:
		return "Climate"
	default:
		return "Other"
	}
}

// Location is an observation site. Mutated only by the management console.
type Location struct {
	ID       int64
	TenantID int64
	Name     string
	Category Category
	Timezone string // IANA name, default "Asia/Jakarta"

	// Escalating water-level alert thresholds, cm.
	Alert1 *float64
	Alert2 *float64
	Alert3 *float64

	LatestSampling *time.Time
}

// DefaultTimezone applies when a location or tenant has no explicit zone.
const DefaultTimezone = "Asia/Jakarta"

// TimeLocation resolves the location's zone, falling back to the default
// when the field is empty or unknown.
func (l Location) TimeLocation() *time.Location {
	return loadZone(l.Timezone)
}

// Tenant groups locations for report delivery.
type Tenant struct {
	ID       int64
	Name     string
	ChatID   string // messaging endpoint identifier
	Timezone string // optional override, empty means DefaultTimezone
}

// TimeLocation resolves the tenant's zone, falling back to the default.
func (t Tenant) TimeLocation() *time.Location {
	return loadZone(t.Timezone)
}

func loadZone(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
	}
	return loc
}
