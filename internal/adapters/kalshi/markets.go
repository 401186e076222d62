package kalshi

// markets.go — fetch y mapeo de mercados de temperatura.
//
// El endpoint /events con with_nested_markets=true devuelve cada evento con
// sus mercados anidados; se pagina con cursor hasta agotar los resultados.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/ports"
)

const (
	eventsPath = "/events"
	pageLimit  = 200
)

// MarketProvider implementa ports.MarketProvider sobre el API de Kalshi.
type MarketProvider struct {
	client *Client
	parser *Parser
}

// NewMarketProvider crea el provider con el directorio de locations dado.
func NewMarketProvider(client *Client, locations ports.LocationDirectory) *MarketProvider {
	return &MarketProvider{
		client: client,
		parser: NewParser(locations),
	}
}

// FetchWeatherMarkets devuelve todos los mercados de temperatura abiertos,
// parseados a su forma canónica. Los títulos no reconocidos y los mercados
// sin precio se saltan con un log; nunca tumban el fetch.
func (p *MarketProvider) FetchWeatherMarkets(ctx context.Context) ([]domain.Market, error) {
	var all []domain.Market
	cursor := ""
	skipped := 0

	for {
		u := fmt.Sprintf("%s%s?status=open&with_nested_markets=true&limit=%d", p.client.baseURL, eventsPath, pageLimit)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}

		var resp eventsResponse
		if err := p.client.get(ctx, u, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.FetchWeatherMarkets: %w", err)
		}

		for _, event := range resp.Events {
			for _, dto := range event.Markets {
				market, ok := p.mapMarket(dto)
				if !ok {
					skipped++
					continue
				}
				all = append(all, market)
			}
		}

		slog.Debug("fetched events page",
			"events", len(resp.Events),
			"markets", len(all),
			"has_more", resp.Cursor != "",
		)

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	slog.Info("weather markets fetched", "total", len(all), "skipped", skipped)
	return all, nil
}

// mapMarket convierte un DTO en un Market del dominio. Devuelve ok=false
// para mercados no parseables, cerrados o sin precio en algún lado.
func (p *MarketProvider) mapMarket(dto marketDTO) (domain.Market, bool) {
	if dto.Status != "" && dto.Status != "active" && dto.Status != "open" {
		return domain.Market{}, false
	}

	parsed, err := p.parser.Parse(dto.Title, dto.Ticker)
	if err != nil {
		slog.Debug("unparseable market title", "ticker", dto.Ticker, "err", err)
		return domain.Market{}, false
	}

	// Precios en centavos → (0,1). Un bid en cero significa sin mercado
	// real en ese lado; el detector no puede valorar el par.
	if dto.YesBid <= 0 || dto.NoBid <= 0 || dto.YesBid >= 100 || dto.NoBid >= 100 {
		slog.Debug("market without two-sided prices", "ticker", dto.Ticker)
		return domain.Market{}, false
	}

	closeTime, err := time.Parse(time.RFC3339, dto.CloseTime)
	if err != nil {
		closeTime = time.Time{}
	}

	return domain.Market{
		Ticker:         dto.Ticker,
		Title:          dto.Title,
		Location:       parsed.Location,
		SettlementDate: parsed.Date,
		Metric:         parsed.Metric,
		Condition:      parsed.Condition,
		YesPrice:       float64(dto.YesBid) / 100,
		NoPrice:        float64(dto.NoBid) / 100,
		Liquidity:      dto.Liquidity,
		CloseTime:      closeTime,
	}, true
}
