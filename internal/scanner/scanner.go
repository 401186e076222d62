package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/ports"
)

// Config contiene la configuración del scanner.
type Config struct {
	ScanInterval  time.Duration
	Bankroll      float64
	KellyFraction float64
	MinEdge       float64
	MinLiquidity  float64
	Model         domain.ModelParams
	HedgeBudget   float64
	MaxHedgeLegs  int
	Workers       int
	Once          bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		ScanInterval:  15 * time.Minute,
		Bankroll:      defaultBankroll,
		KellyFraction: defaultKellyFraction,
		MinEdge:       defaultMinEdge,
		Model:         domain.DefaultModelParams(),
		HedgeBudget:   defaultHedgeBudget,
		MaxHedgeLegs:  defaultMaxLegs,
	}
}

// Scanner es el orquestador principal del loop de escaneo.
type Scanner struct {
	cfg      Config
	markets  ports.MarketProvider
	weather  ports.WeatherProvider
	storage  ports.Storage
	notifier ports.Notifier
	detector *Detector
	hedger   *HedgeOptimizer
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(
	cfg Config,
	markets ports.MarketProvider,
	weather ports.WeatherProvider,
	storage ports.Storage,
	notifier ports.Notifier,
) *Scanner {
	model := domain.NewModel(cfg.Model)
	return &Scanner{
		cfg:      cfg,
		markets:  markets,
		weather:  weather,
		storage:  storage,
		notifier: notifier,
		detector: NewDetector(model, cfg.Bankroll, cfg.KellyFraction, cfg.MinEdge, cfg.MinLiquidity),
		hedger:   NewHedgeOptimizer(model.Params(), cfg.HedgeBudget, cfg.MaxHedgeLegs),
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele.
// Si cfg.Once está activo, solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"min_edge", s.cfg.MinEdge,
		"bankroll", s.cfg.Bankroll,
		"once", s.cfg.Once,
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if s.cfg.Once {
			return err
		}
	}

	if s.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve oportunidades y planes.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Opportunity, []domain.HedgePlan, error) {
	return s.cycle(ctx)
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()

	opps, plans, err := s.cycle(ctx)
	if err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, opps, plans); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if s.storage != nil {
		if err := s.storage.SaveScan(ctx, opps, plans); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"opportunities", len(opps),
		"hedge_plans", len(plans),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → group → estimate/detect → hedge → rank.
func (s *Scanner) cycle(ctx context.Context) ([]domain.Opportunity, []domain.HedgePlan, error) {
	markets, err := s.markets.FetchWeatherMarkets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("scanner.cycle: fetch markets: %w", err)
	}

	groups := groupMarkets(markets)
	results := scanGroupsConcurrent(ctx, s, groups, s.cfg.Workers)

	var opps []domain.Opportunity
	var plans []domain.HedgePlan
	for _, res := range results {
		opps = append(opps, res.opportunities...)
		if res.hasPlan {
			plans = append(plans, res.plan)
		}
	}

	rankByEdge(opps)
	rankByExpectedValue(plans)
	return opps, plans, nil
}

// scanGroup procesa un grupo correlacionado: un fetch de observaciones
// compartido, detección por mercado con skip-and-continue, y el plan de
// cobertura si hay oportunidades.
func (s *Scanner) scanGroup(ctx context.Context, g marketGroup) (groupResult, error) {
	first := g.markets[0]
	obs, err := s.weather.FetchObservationStats(ctx, first.Location, first.SettlementDate, first.Metric)
	if err != nil {
		return groupResult{}, fmt.Errorf("scanner.scanGroup: fetch observations: %w", err)
	}

	now := time.Now()
	opps := make([]domain.Opportunity, 0, len(g.markets))
	for _, market := range g.markets {
		opp, ok, err := s.detector.Detect(market, obs, now)
		if err != nil {
			slog.Debug("detect failed", "ticker", market.Ticker, "err", err)
			continue
		}
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}

	res := groupResult{opportunities: opps}
	if len(opps) > 0 {
		res.plan = s.hedger.Optimize(domain.CorrelatedGroup{Key: g.key, Opportunities: opps}, obs, now)
		res.hasPlan = true
	}
	return res, nil
}

// marketGroup son los mercados que resuelven contra el mismo observable.
type marketGroup struct {
	key     domain.GroupKey
	markets []domain.Market
}

// groupMarkets particiona los mercados por observable de settlement,
// preservando el orden de llegada.
func groupMarkets(markets []domain.Market) []marketGroup {
	groups := make([]marketGroup, 0)
	index := make(map[domain.GroupKey]int)
	for _, m := range markets {
		key := m.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, marketGroup{key: key})
		}
		groups[i].markets = append(groups[i].markets, m)
	}
	return groups
}

// rankByEdge ordena las oportunidades por edge descendente.
func rankByEdge(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Edge > opps[j].Edge
	})
}

// rankByExpectedValue ordena los planes por EV descendente.
func rankByExpectedValue(plans []domain.HedgePlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].ExpectedValue > plans[j].ExpectedValue
	})
}
