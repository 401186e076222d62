package weather

// stats.go — ensamblado de ObservationStats: observaciones del día,
// forecast y preliminary climate report, más la política de pico.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/ports"
)

// Hora local a partir de la cual el extremo del día se considera fijado.
// La mínima ocurre antes del amanecer; la máxima a media tarde. Después de
// esas horas el valor solo puede moverse a favor del extremo ya observado.
const (
	minPeakHour = 9
	maxPeakHour = 18
	avgPeakHour = 23
)

// Provider implementa ports.WeatherProvider sobre el cliente NWS.
type Provider struct {
	nws       *NWS
	locations ports.LocationDirectory
	now       func() time.Time
}

// NewProvider crea el provider con el directorio de locations dado.
func NewProvider(nws *NWS, locations ports.LocationDirectory) *Provider {
	return &Provider{nws: nws, locations: locations, now: time.Now}
}

// FetchObservationStats agrega todo lo disponible del observable. Las
// fuentes fallan de forma independiente: perder las observaciones no
// impide usar el forecast, y viceversa. Location desconocida →
// *ConfigurationError.
func (p *Provider) FetchObservationStats(ctx context.Context, location string, date time.Time, metric domain.Metric) (domain.ObservationStats, error) {
	loc, ok := p.locations.Lookup(location)
	if !ok {
		return domain.ObservationStats{}, &domain.ConfigurationError{
			Msg: fmt.Sprintf("unknown location %q", location),
		}
	}

	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return domain.ObservationStats{}, &domain.ConfigurationError{
			Msg: fmt.Sprintf("location %q: bad timezone %q: %v", location, loc.Timezone, err),
		}
	}

	localNow := p.now().In(tz)
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, tz)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := domain.ObservationStats{
		Location:       loc.Name,
		Date:           dayStart,
		Metric:         metric,
		IsPastPeakTime: pastPeak(metric, dayStart, localNow),
	}

	// Observaciones: solo tienen sentido una vez empezado el día local.
	if localNow.After(dayStart) {
		end := dayEnd
		if localNow.Before(end) {
			end = localNow
		}
		obs, err := p.nws.Observations(ctx, loc.StationID, dayStart, end)
		if err != nil {
			slog.Warn("observations unavailable", "station", loc.StationID, "err", err)
		} else {
			applyObservations(&stats, obs)
		}
	}

	periods, err := p.nws.HourlyForecast(ctx, loc)
	if err != nil {
		slog.Warn("forecast unavailable", "location", loc.Name, "err", err)
	} else {
		applyForecast(&stats, periods, dayStart, dayEnd, tz)
	}

	// El preliminary se publica a la mañana siguiente del día de settlement.
	if localNow.After(dayEnd) {
		report, published, err := p.nws.PreliminaryClimateReport(ctx, loc.StationID)
		if err != nil {
			slog.Warn("preliminary report unavailable", "station", loc.StationID, "err", err)
		} else if published {
			stats.HasPreliminary = true
			stats.PreliminaryMin = report.Min
			stats.PreliminaryMax = report.Max
		}
	}

	return stats, nil
}

// pastPeak decide si el extremo de la métrica ya quedó fijado.
func pastPeak(metric domain.Metric, dayStart, localNow time.Time) bool {
	if localNow.Before(dayStart) {
		return false
	}
	if !sameLocalDate(localNow, dayStart) {
		// El día de settlement ya terminó.
		return true
	}
	switch metric {
	case domain.MetricMin:
		return localNow.Hour() >= minPeakHour
	case domain.MetricMax:
		return localNow.Hour() >= maxPeakHour
	default:
		return localNow.Hour() >= avgPeakHour
	}
}

// applyObservations agrega las lecturas de la estación en los campos de
// observación del stats.
func applyObservations(stats *domain.ObservationStats, obs []observation) {
	if len(obs) == 0 {
		return
	}
	stats.HasObservation = true
	stats.MinSoFar = obs[0].Temperature
	stats.MaxSoFar = obs[0].Temperature
	sum := 0.0
	latest := obs[0]
	for _, o := range obs {
		if o.Temperature < stats.MinSoFar {
			stats.MinSoFar = o.Temperature
		}
		if o.Temperature > stats.MaxSoFar {
			stats.MaxSoFar = o.Temperature
		}
		sum += o.Temperature
		if o.Time.After(latest.Time) {
			latest = o
		}
	}
	stats.AvgSoFar = sum / float64(len(obs))
	stats.LatestValue = latest.Temperature
	stats.ObservationTime = latest.Time
}

// applyForecast calcula los extremos del forecast para el día local de
// settlement. Periodos fuera del día se ignoran.
func applyForecast(stats *domain.ObservationStats, periods []forecastPeriod, dayStart, dayEnd time.Time, tz *time.Location) {
	first := true
	for _, period := range periods {
		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			continue
		}
		local := start.In(tz)
		if local.Before(dayStart) || !local.Before(dayEnd) {
			continue
		}
		temp := period.Temperature
		if period.TemperatureUnit == "C" {
			temp = temp*9/5 + 32
		}
		if first {
			stats.HasForecast = true
			stats.ForecastMin = temp
			stats.ForecastMax = temp
			first = false
			continue
		}
		if temp < stats.ForecastMin {
			stats.ForecastMin = temp
		}
		if temp > stats.ForecastMax {
			stats.ForecastMax = temp
		}
	}
}

// sameLocalDate compara dos instantes por fecha de calendario local.
func sameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
