package ports

import (
	"context"

	"github.com/alejandrodnm/climabot/internal/domain"
)

// MarketProvider obtiene los mercados de temperatura abiertos desde el exchange.
type MarketProvider interface {
	// FetchWeatherMarkets devuelve todos los mercados de temperatura abiertos,
	// ya parseados a su forma canónica. Pagina automáticamente hasta obtener
	// todos los resultados; los títulos no parseables se saltan con un log.
	FetchWeatherMarkets(ctx context.Context) ([]domain.Market, error)
}
