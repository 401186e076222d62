package scanner_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector() *scanner.Detector {
	model := domain.NewModel(domain.ModelParams{})
	return scanner.NewDetector(model, 1000, 0.25, 0.20, 0)
}

func TestDetector_YesSide(t *testing.T) {
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)

	opp, ok, err := d.Detect(market, pastPeakMax("Denver, CO", 92), time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, domain.SideYes, opp.Side)
	assert.InDelta(t, 0.35, opp.EdgeYes, 1e-9)
	assert.InDelta(t, -0.35, opp.EdgeNo, 1e-9)
	assert.Equal(t, opp.EdgeYes, opp.Edge)
	assert.Equal(t, 0.60, opp.EntryPrice())
}

func TestDetector_NoSide(t *testing.T) {
	// max fijado en 78 → P(>=85) = 0.05; YES a 0.60 → el NO a 0.40 tiene edge 0.55
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)

	opp, ok, err := d.Detect(market, pastPeakMax("Denver, CO", 78), time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, domain.SideNo, opp.Side)
	assert.InDelta(t, 0.55, opp.Edge, 1e-9)
	assert.InDelta(t, 0.95, opp.ModelProbability(), 1e-9)
}

func TestDetector_BelowMinEdge(t *testing.T) {
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.90)

	_, ok, err := d.Detect(market, pastPeakMax("Denver, CO", 92), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetector_StakeIsQuarterKelly(t *testing.T) {
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)

	opp, ok, err := d.Detect(market, pastPeakMax("Denver, CO", 92), time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// b = 1/0.60 - 1 = 0.6667; k = (0.6667×0.95 - 0.05)/0.6667 = 0.875
	// quarter-Kelly = 0.21875 → stake = 218.75 sobre 1000
	assert.InDelta(t, 0.21875, opp.StakeFraction, 1e-6)
	assert.InDelta(t, 218.75, opp.Stake, 1e-3)
}

func TestDetector_TooEarlyNeverClears(t *testing.T) {
	// sin datos, p=0.5: el edge máximo posible es 0.5 - precio; con precios
	// razonables nunca supera el mínimo
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.40)

	_, ok, err := d.Detect(market, domain.ObservationStats{Metric: domain.MetricMax}, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetector_InvalidPrices(t *testing.T) {
	d := newTestDetector()
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60)
	market.YesPrice = 0

	_, _, err := d.Detect(market, pastPeakMax("Denver, CO", 92), time.Now())
	require.Error(t, err)
	var cerr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestDetector_MinLiquidity(t *testing.T) {
	model := domain.NewModel(domain.ModelParams{})
	d := scanner.NewDetector(model, 1000, 0.25, 0.20, 10_000)
	market := makeMarket("KXHIGH-DEN-B85", "Denver, CO", domain.AtLeast(85), 0.60) // liquidity 5000

	_, ok, err := d.Detect(market, pastPeakMax("Denver, CO", 92), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
