package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }

func TestParseRawPayload(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		data := []byte(`{"device":"arr/1910-27","sampling":1714100400,"tick":3,"temperature":28.5,"humidity":80,"battery":12.4,"signal_quality":21}`)
		raw, err := ParseRawPayload(data)

		require.NoError(t, err)
		assert.Equal(t, "arr/1910-27", raw.Device)
		assert.Equal(t, int64(1714100400), raw.Sampling)
		require.NotNil(t, raw.Tick)
		assert.Equal(t, 3, *raw.Tick)
		require.NotNil(t, raw.Temperature)
		assert.Equal(t, 28.5, *raw.Temperature)
		assert.Nil(t, raw.Distance)
		assert.Nil(t, raw.WindSpeed)
	})

	t.Run("unrecognized keys ignored", func(t *testing.T) {
		data := []byte(`{"device":"awlr/2001-9","sampling":1714100400,"distance":5000,"firmware":"2.1","gps_fix":true}`)
		raw, err := ParseRawPayload(data)

		require.NoError(t, err)
		require.NotNil(t, raw.Distance)
		assert.Equal(t, 5000.0, *raw.Distance)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawPayload([]byte("{broken"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw payload")
	})

	t.Run("missing device", func(t *testing.T) {
		_, err := ParseRawPayload([]byte(`{"sampling":1714100400,"tick":1}`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing device")
	})
}

func TestSerialNumber(t *testing.T) {
	tests := []struct {
		name     string
		device   string
		expected string
		wantErr  bool
	}{
		{"class and serial", "arr/1910-27", "1910-27", false},
		{"serial with slash", "awlr/SN/01", "SN/01", false},
		{"no separator", "1910-27", "", true},
		{"empty serial", "arr/", "", true},
		{"empty string", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sn, err := RawPayload{Device: tt.device}.SerialNumber()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sn)
		})
	}
}

func TestTransformRain(t *testing.T) {
	base := RawPayload{Device: "arr/1910-27", Sampling: 1714100400}

	t.Run("calibrated tipping factor", func(t *testing.T) {
		raw := base
		raw.Tick = intPtr(10)
		dev := Device{SN: "1910-27", TippingFactor: floatPtr(0.2)}

		r := Transform(raw, dev)

		require.NotNil(t, r.Rain)
		assert.Equal(t, 2.0, *r.Rain)
	})

	t.Run("default tipping factor", func(t *testing.T) {
		raw := base
		raw.Tick = intPtr(5)

		r := Transform(raw, Device{SN: "1910-27"})

		require.NotNil(t, r.Rain)
		assert.Equal(t, 1.0, *r.Rain)
	})

	t.Run("zero ticks is a reading of zero", func(t *testing.T) {
		raw := base
		raw.Tick = intPtr(0)

		r := Transform(raw, Device{SN: "1910-27"})

		require.NotNil(t, r.Rain)
		assert.Equal(t, 0.0, *r.Rain)
	})

	t.Run("absent tick yields no rain", func(t *testing.T) {
		r := Transform(base, Device{SN: "1910-27"})
		assert.Nil(t, r.Rain)
	})
}

func TestTransformWaterLevel(t *testing.T) {
	base := RawPayload{Device: "awlr/2001-9", Sampling: 1714100400}

	t.Run("calibrated offset", func(t *testing.T) {
		raw := base
		raw.Distance = floatPtr(500)
		dev := Device{SN: "2001-9", SonicOffset: floatPtr(100)}

		r := Transform(raw, dev)

		require.NotNil(t, r.WaterLevel)
		assert.Equal(t, 50.0, *r.WaterLevel)
	})

	t.Run("default offset", func(t *testing.T) {
		raw := base
		raw.Distance = floatPtr(400)

		r := Transform(raw, Device{SN: "2001-9"})

		require.NotNil(t, r.WaterLevel)
		assert.Equal(t, 60.0, *r.WaterLevel)
	})

	t.Run("level can go negative", func(t *testing.T) {
		raw := base
		raw.Distance = floatPtr(1500)
		dev := Device{SN: "2001-9", SonicOffset: floatPtr(100)}

		r := Transform(raw, dev)

		require.NotNil(t, r.WaterLevel)
		assert.Equal(t, -50.0, *r.WaterLevel)
	})
}

func TestTransformCorrections(t *testing.T) {
	base := RawPayload{Device: "klim/3001-1", Sampling: 1714100400}

	t.Run("additive corrections applied", func(t *testing.T) {
		raw := base
		raw.Humidity = floatPtr(80)
		raw.Temperature = floatPtr(30)
		raw.Battery = floatPtr(12.5)
		dev := Device{
			SN:              "3001-1",
			HumidityCorr:    floatPtr(-3),
			TemperatureCorr: floatPtr(1.5),
			BatteryCorr:     floatPtr(-0.5),
		}

		r := Transform(raw, dev)

		require.NotNil(t, r.Humidity)
		assert.Equal(t, 77.0, *r.Humidity)
		require.NotNil(t, r.Temperature)
		assert.Equal(t, 31.5, *r.Temperature)
		require.NotNil(t, r.Battery)
		assert.Equal(t, 12.0, *r.Battery)
	})

	t.Run("nil correction copies verbatim", func(t *testing.T) {
		raw := base
		raw.Humidity = floatPtr(80)

		r := Transform(raw, Device{SN: "3001-1"})

		require.NotNil(t, r.Humidity)
		assert.Equal(t, 80.0, *r.Humidity)
	})

	t.Run("correction on absent field stays absent", func(t *testing.T) {
		dev := Device{SN: "3001-1", HumidityCorr: floatPtr(-3)}

		r := Transform(base, dev)

		assert.Nil(t, r.Humidity)
	})
}

func TestTransformVerbatimFields(t *testing.T) {
	raw := RawPayload{
		Device:        "klim/3001-1",
		Sampling:      1714100400,
		WindSpeed:     floatPtr(3.4),
		WindDirection: floatPtr(120),
		SunRadiation:  floatPtr(820),
		Pressure:      floatPtr(1012.3),
		Altitude:      floatPtr(215),
		SignalQuality: floatPtr(21),
	}

	r := Transform(raw, Device{SN: "3001-1"})

	require.NotNil(t, r.WindSpeed)
	assert.Equal(t, 3.4, *r.WindSpeed)
	require.NotNil(t, r.WindDirection)
	assert.Equal(t, 120.0, *r.WindDirection)
	require.NotNil(t, r.SunRadiation)
	assert.Equal(t, 820.0, *r.SunRadiation)
	require.NotNil(t, r.Pressure)
	assert.Equal(t, 1012.3, *r.Pressure)
	require.NotNil(t, r.Altitude)
	assert.Equal(t, 215.0, *r.Altitude)
	require.NotNil(t, r.SignalQuality)
	assert.Equal(t, 21.0, *r.SignalQuality)
}

func TestTransformTimestamps(t *testing.T) {
	locID := int64(7)
	raw := RawPayload{
		Device:    "arr/1910-27",
		Sampling:  1714100400,
		UpSince:   int64Ptr(1714000000),
		TimeSetAt: int64Ptr(1714050000),
	}
	dev := Device{SN: "1910-27", LocationID: &locID}

	r := Transform(raw, dev)

	assert.Equal(t, "1910-27", r.DeviceSN)
	require.NotNil(t, r.LocationID)
	assert.Equal(t, int64(7), *r.LocationID)
	assert.Equal(t, time.Unix(1714100400, 0).UTC(), r.Sampling)
	assert.Equal(t, time.UTC, r.Sampling.Location())
	require.NotNil(t, r.UpSince)
	assert.Equal(t, time.Unix(1714000000, 0).UTC(), *r.UpSince)
	require.NotNil(t, r.TimeSetAt)
	assert.Equal(t, time.Unix(1714050000, 0).UTC(), *r.TimeSetAt)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Rain Gauge", CategoryRainGauge.Label())
	assert.Equal(t, "Water Level", CategoryWaterLevel.Label())
	assert.Equal(t, "Climate", CategoryClimate.Label())
	assert.Equal(t, "Other", CategoryOther.Label())
	assert.Equal(t, "Other", Category("bogus").Label())
}

func TestTimeLocationFallback(t *testing.T) {
	def, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)

	assert.Equal(t, def.String(), Location{}.TimeLocation().String())
	assert.Equal(t, def.String(), Tenant{Timezone: "Not/AZone"}.TimeLocation().String())
	assert.Equal(t, "Asia/Makassar", Tenant{Timezone: "Asia/Makassar"}.TimeLocation().String())
}
