package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/ports"
	"github.com/alejandrodnm/climabot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMarketProvider struct {
	markets []domain.Market
	err     error
}

func (m *mockMarketProvider) FetchWeatherMarkets(_ context.Context) ([]domain.Market, error) {
	return m.markets, m.err
}

type mockWeatherProvider struct {
	stats map[string]domain.ObservationStats // por location
	err   error
}

func (m *mockWeatherProvider) FetchObservationStats(_ context.Context, location string, _ time.Time, _ domain.Metric) (domain.ObservationStats, error) {
	if m.err != nil {
		return domain.ObservationStats{}, m.err
	}
	return m.stats[location], nil
}

type mockNotifier struct {
	notified []domain.Opportunity
	plans    []domain.HedgePlan
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, opps []domain.Opportunity, plans []domain.HedgePlan) error {
	m.notified = opps
	m.plans = plans
	return m.err
}

type mockStorage struct {
	saved      []domain.Opportunity
	savedPlans []domain.HedgePlan
	err        error
}

func (m *mockStorage) SaveScan(_ context.Context, opps []domain.Opportunity, plans []domain.HedgePlan) error {
	m.saved = opps
	m.savedPlans = plans
	return m.err
}

func (m *mockStorage) GetHistory(_ context.Context, _, _ time.Time) ([]domain.Opportunity, error) {
	return nil, nil
}

func (m *mockStorage) GetHedgePlans(_ context.Context, _, _ time.Time) ([]domain.HedgePlan, error) {
	return nil, nil
}

func (m *mockStorage) Prune(_ context.Context, _ time.Time) error { return nil }

func (m *mockStorage) Close() error { return nil }

// --- helpers ---

var settleDate = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func makeMarket(ticker, location string, cond domain.Condition, yesPrice float64) domain.Market {
	return domain.Market{
		Ticker:         ticker,
		Title:          "High temp market",
		Location:       location,
		SettlementDate: settleDate,
		Metric:         domain.MetricMax,
		Condition:      cond,
		YesPrice:       yesPrice,
		NoPrice:        1 - yesPrice,
		Liquidity:      5000,
	}
}

func pastPeakMax(location string, max float64) domain.ObservationStats {
	return domain.ObservationStats{
		Location:       location,
		Date:           settleDate,
		Metric:         domain.MetricMax,
		HasObservation: true,
		MaxSoFar:       max,
		IsPastPeakTime: true,
	}
}

func newTestScanner(mp *mockMarketProvider, wp ports.WeatherProvider, n *mockNotifier, s *mockStorage) *scanner.Scanner {
	cfg := scanner.DefaultConfig()
	cfg.Workers = 2
	if s == nil {
		return scanner.New(cfg, mp, wp, nil, n)
	}
	return scanner.New(cfg, mp, wp, s, n)
}

// --- tests ---

func TestScanner_RunOnce_DetectsMispricing(t *testing.T) {
	// max fijado en 92 → P(>=85) = 0.95; mercado a 0.60 → edge 0.35
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)
	mp := &mockMarketProvider{markets: []domain.Market{market}}
	wp := &mockWeatherProvider{stats: map[string]domain.ObservationStats{
		"Denver, CO": pastPeakMax("Denver, CO", 92),
	}}

	s := newTestScanner(mp, wp, &mockNotifier{}, nil)
	opps, plans, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.SideYes, opps[0].Side)
	assert.InDelta(t, 0.35, opps[0].Edge, 1e-9)
	assert.Greater(t, opps[0].Stake, 0.0)

	require.Len(t, plans, 1)
	assert.Equal(t, "KXHIGH-DEN-B85", plans[0].Primary.Market.Ticker)
	assert.Empty(t, plans[0].Legs)
}

func TestScanner_RunOnce_SkipsFairlyPriced(t *testing.T) {
	// precio 0.93 contra p=0.95 → edge 0.02, por debajo del mínimo
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.93)
	mp := &mockMarketProvider{markets: []domain.Market{market}}
	wp := &mockWeatherProvider{stats: map[string]domain.ObservationStats{
		"Denver, CO": pastPeakMax("Denver, CO", 92),
	}}

	s := newTestScanner(mp, wp, &mockNotifier{}, nil)
	opps, plans, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.Empty(t, plans)
}

func TestScanner_RunOnce_MarketProviderError(t *testing.T) {
	mp := &mockMarketProvider{err: errors.New("API down")}
	wp := &mockWeatherProvider{}

	s := newTestScanner(mp, wp, &mockNotifier{}, nil)
	_, _, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestScanner_RunOnce_WeatherErrorSkipsGroupOnly(t *testing.T) {
	// el provider falla para Miami; Denver debe seguir adelante
	denver := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)
	miami := makeMarket("KXHIGH-MIA-B90", "Miami, FL", domain.AtLeast(90), 0.60)

	mp := &mockMarketProvider{markets: []domain.Market{denver, miami}}
	wp := &selectiveWeatherProvider{
		stats:   map[string]domain.ObservationStats{"Denver, CO": pastPeakMax("Denver, CO", 92)},
		failFor: "Miami, FL",
	}

	s := newTestScanner(mp, wp, &mockNotifier{}, nil)
	opps, _, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "KXHIGH-DEN-B85", opps[0].Market.Ticker)
}

type selectiveWeatherProvider struct {
	stats   map[string]domain.ObservationStats
	failFor string
}

func (m *selectiveWeatherProvider) FetchObservationStats(_ context.Context, location string, _ time.Time, _ domain.Metric) (domain.ObservationStats, error) {
	if location == m.failFor {
		return domain.ObservationStats{}, errors.New("station offline")
	}
	return m.stats[location], nil
}

func TestScanner_RunOnce_RankedByEdge(t *testing.T) {
	// mismo observable, dos mercados: el edge mayor va primero
	small := makeMarket("KXHIGH-DEN-B90", "Denver, CO", domain.AtLeast(90), 0.55) // p=0.68, edge 0.13 → fuera
	big := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.30)   // p=0.95, edge 0.65
	mid := makeMarket("KXHIGH-DEN-B88", "Denver, CO", domain.AtLeast(88), 0.50)   // p=0.86, edge 0.36

	mp := &mockMarketProvider{markets: []domain.Market{small, mid, big}}
	wp := &mockWeatherProvider{stats: map[string]domain.ObservationStats{
		"Denver, CO": pastPeakMax("Denver, CO", 92),
	}}

	s := newTestScanner(mp, wp, &mockNotifier{}, nil)
	opps, _, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.Equal(t, "KXHIGH-DEN-B85", opps[0].Market.Ticker)
	assert.Equal(t, "KXHIGH-DEN-B88", opps[1].Market.Ticker)
}

func TestScanner_Run_Once_NotifiesAndPersists(t *testing.T) {
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)
	mp := &mockMarketProvider{markets: []domain.Market{market}}
	wp := &mockWeatherProvider{stats: map[string]domain.ObservationStats{
		"Denver, CO": pastPeakMax("Denver, CO", 92),
	}}
	notifier := &mockNotifier{}
	storage := &mockStorage{}

	cfg := scanner.DefaultConfig()
	cfg.Once = true
	s := scanner.New(cfg, mp, wp, storage, notifier)

	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, notifier.notified, 1)
	assert.Len(t, storage.saved, 1)
	assert.Len(t, storage.savedPlans, 1)
}

func TestScanner_Run_Once_PropagatesCycleError(t *testing.T) {
	mp := &mockMarketProvider{err: errors.New("API down")}
	wp := &mockWeatherProvider{}

	cfg := scanner.DefaultConfig()
	cfg.Once = true
	s := scanner.New(cfg, mp, wp, nil, &mockNotifier{})

	assert.Error(t, s.Run(context.Background()))
}
