package weather

import (
	"testing"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denverTZ(t *testing.T) *time.Location {
	tz, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	return tz
}

func TestPastPeak_Minimum(t *testing.T) {
	tz := denverTZ(t)
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, tz)

	// antes del amanecer la mínima todavía puede bajar
	assert.False(t, pastPeak(domain.MetricMin, day, time.Date(2026, 1, 12, 6, 30, 0, 0, tz)))
	// a partir de las 09:00 locales el extremo está fijado
	assert.True(t, pastPeak(domain.MetricMin, day, time.Date(2026, 1, 12, 9, 0, 0, 0, tz)))
}

func TestPastPeak_Maximum(t *testing.T) {
	tz := denverTZ(t)
	day := time.Date(2026, 7, 20, 0, 0, 0, 0, tz)

	assert.False(t, pastPeak(domain.MetricMax, day, time.Date(2026, 7, 20, 14, 0, 0, 0, tz)))
	assert.True(t, pastPeak(domain.MetricMax, day, time.Date(2026, 7, 20, 18, 0, 0, 0, tz)))
}

func TestPastPeak_DayBoundaries(t *testing.T) {
	tz := denverTZ(t)
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, tz)

	// día futuro → nunca past peak
	assert.False(t, pastPeak(domain.MetricMax, day, time.Date(2026, 1, 11, 23, 0, 0, 0, tz)))
	// día terminado → siempre past peak
	assert.True(t, pastPeak(domain.MetricMin, day, time.Date(2026, 1, 13, 2, 0, 0, 0, tz)))
}

func TestApplyObservations(t *testing.T) {
	tz := denverTZ(t)
	stats := domain.ObservationStats{Metric: domain.MetricMax}

	applyObservations(&stats, []observation{
		{Time: time.Date(2026, 1, 12, 8, 0, 0, 0, tz), Temperature: 28},
		{Time: time.Date(2026, 1, 12, 12, 0, 0, 0, tz), Temperature: 41},
		{Time: time.Date(2026, 1, 12, 10, 0, 0, 0, tz), Temperature: 35},
	})

	require.True(t, stats.HasObservation)
	assert.Equal(t, 28.0, stats.MinSoFar)
	assert.Equal(t, 41.0, stats.MaxSoFar)
	assert.InDelta(t, 34.667, stats.AvgSoFar, 0.001)
	// la lectura más reciente por timestamp, no la última del slice
	assert.Equal(t, 41.0, stats.LatestValue)
}

func TestApplyObservations_Empty(t *testing.T) {
	stats := domain.ObservationStats{}
	applyObservations(&stats, nil)
	assert.False(t, stats.HasObservation)
}

func TestApplyForecast_FiltersToLocalDate(t *testing.T) {
	tz := denverTZ(t)
	dayStart := time.Date(2026, 1, 12, 0, 0, 0, 0, tz)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := domain.ObservationStats{}
	applyForecast(&stats, []forecastPeriod{
		{StartTime: "2026-01-11T23:00:00-07:00", Temperature: 99, TemperatureUnit: "F"}, // día anterior
		{StartTime: "2026-01-12T06:00:00-07:00", Temperature: 22, TemperatureUnit: "F"},
		{StartTime: "2026-01-12T15:00:00-07:00", Temperature: 38, TemperatureUnit: "F"},
		{StartTime: "2026-01-13T00:00:00-07:00", Temperature: -40, TemperatureUnit: "F"}, // día siguiente
	}, dayStart, dayEnd, tz)

	require.True(t, stats.HasForecast)
	assert.Equal(t, 22.0, stats.ForecastMin)
	assert.Equal(t, 38.0, stats.ForecastMax)
}

func TestApplyForecast_CelsiusConversion(t *testing.T) {
	tz := denverTZ(t)
	dayStart := time.Date(2026, 1, 12, 0, 0, 0, 0, tz)

	stats := domain.ObservationStats{}
	applyForecast(&stats, []forecastPeriod{
		{StartTime: "2026-01-12T12:00:00-07:00", Temperature: 0, TemperatureUnit: "C"},
	}, dayStart, dayStart.AddDate(0, 0, 1), tz)

	require.True(t, stats.HasForecast)
	assert.Equal(t, 32.0, stats.ForecastMax)
}

func TestParsePreliminaryReport(t *testing.T) {
	html := `<html><body><pre class="glossaryProduct">
CLIMATE REPORT
NATIONAL WEATHER SERVICE DENVER CO

...PRELIMINARY...

TEMPERATURE (F)
 YESTERDAY
  MAXIMUM         92    304 PM
  MINIMUM         58    512 AM
</pre></body></html>`

	pre := preTagPattern.FindStringSubmatch(html)
	require.NotNil(t, pre)

	minMatch := cliMinPattern.FindStringSubmatch(pre[1])
	maxMatch := cliMaxPattern.FindStringSubmatch(pre[1])
	require.NotNil(t, minMatch)
	require.NotNil(t, maxMatch)
	assert.Equal(t, "58", minMatch[1])
	assert.Equal(t, "92", maxMatch[1])
}

func TestDirectory_Lookup(t *testing.T) {
	d := NewDirectory()

	loc, ok := d.Lookup("Denver, CO")
	require.True(t, ok)
	assert.Equal(t, "KDEN", loc.StationID)
	assert.Equal(t, "DEN", loc.TickerCode)

	// insensible a mayúsculas
	_, ok = d.Lookup("denver, co")
	assert.True(t, ok)

	_, ok = d.Lookup("Gotham, NJ")
	assert.False(t, ok)
}

func TestDirectory_All_StableOrder(t *testing.T) {
	d := NewDirectory()
	all := d.All()
	require.NotEmpty(t, all)
	assert.Equal(t, "Denver, CO", all[0].Name)
	assert.Equal(t, d.All(), all)
}
