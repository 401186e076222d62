package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
)

// WeatherProvider obtiene el estado del observable de settlement de una
// estación: observaciones del día, forecast y preliminary climate report.
type WeatherProvider interface {
	// FetchObservationStats agrega todo lo disponible para la métrica de la
	// location en la fecha dada. Location desconocida → *ConfigurationError.
	FetchObservationStats(ctx context.Context, location string, date time.Time, metric domain.Metric) (domain.ObservationStats, error)
}
