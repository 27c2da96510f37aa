package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	defaultTippingFactor = 0.2
	defaultSonicOffset   = 100
)

// ParseRawPayload deserializes one raw bus message or API record.
func ParseRawPayload(data []byte) (RawPayload, error) {
	var raw RawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawPayload{}, fmt.Errorf("parse raw payload: %w", err)
	}
	if raw.Device == "" {
		return RawPayload{}, fmt.Errorf("parse raw payload: missing device identifier")
	}
	return raw, nil
}

// SerialNumber extracts the logger serial from a "<class>/<serial>" device
// identifier.
func (p RawPayload) SerialNumber() (string, error) {
	_, sn, ok := strings.Cut(p.Device, "/")
	if !ok || sn == "" {
		return "", fmt.Errorf("malformed device identifier %q", p.Device)
	}
	return sn, nil
}

// fieldMapping routes one optional raw measurement to its canonical field.
// Each entry is applied independently; a nil source leaves the target unset
// and an unrecognized raw key simply has no entry here.
type fieldMapping struct {
	src  *float64
	dst  **float64
	corr *float64 // additive calibration offset, nil for verbatim copy
}

func (m fieldMapping) apply() {
	if m.src == nil {
		return
	}
	v := *m.src
	if m.corr != nil {
		v += *m.corr
	}
	*m.dst = &v
}

// epochMapping routes an optional epoch-seconds field to a UTC timestamp.
type epochMapping struct {
	src *int64
	dst **time.Time
}

func (m epochMapping) apply() {
	if m.src == nil {
		return
	}
	t := time.Unix(*m.src, 0).UTC()
	*m.dst = &t
}

// Transform converts one raw payload into a canonical Reading under the
// device's calibration. It is pure: persistence and forwarding are separate
// steps. The caller has already resolved dev from the payload's serial.
func Transform(raw RawPayload, dev Device) Reading {
	r := Reading{
		DeviceSN:   dev.SN,
		LocationID: dev.LocationID,
		Sampling:   time.Unix(raw.Sampling, 0).UTC(),
	}

	if raw.Tick != nil {
		rain := orDefault(dev.TippingFactor, defaultTippingFactor) * float64(*raw.Tick)
		r.Rain = &rain
	}
	if raw.Distance != nil {
		// distance is millimeters, the offset and the stored level are cm.
		wlev := orDefault(dev.SonicOffset, defaultSonicOffset) - *raw.Distance*0.1
		r.WaterLevel = &wlev
	}

	mappings := []fieldMapping{
		{src: raw.WindSpeed, dst: &r.WindSpeed},
		{src: raw.WindDirection, dst: &r.WindDirection},
		{src: raw.SunRadiation, dst: &r.SunRadiation},
		{src: raw.Pressure, dst: &r.Pressure},
		{src: raw.Altitude, dst: &r.Altitude},
		{src: raw.SignalQuality, dst: &r.SignalQuality},
		{src: raw.Humidity, dst: &r.Humidity, corr: dev.HumidityCorr},
		{src: raw.Temperature, dst: &r.Temperature, corr: dev.TemperatureCorr},
		{src: raw.Battery, dst: &r.Battery, corr: dev.BatteryCorr},
	}
	for _, m := range mappings {
		m.apply()
	}

	epochs := []epochMapping{
		{src: raw.UpSince, dst: &r.UpSince},
		{src: raw.TimeSetAt, dst: &r.TimeSetAt},
	}
	for _, m := range epochs {
		m.apply()
	}

	return r
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
