package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/climabot/internal/adapters/storage"
	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOpportunity(ticker string, edge float64, side domain.Side) domain.Opportunity {
	return domain.Opportunity{
		Market: domain.Market{
			Ticker:         ticker,
			Title:          "Will the high temp in Denver be 85° or above on Jan 12?",
			Location:       "Denver, CO",
			SettlementDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			Metric:         domain.MetricMax,
			Condition:      domain.AtLeast(85),
			YesPrice:       0.40,
			NoPrice:        0.55,
		},
		Estimate: domain.Estimate{
			Value:      0.75,
			Confidence: 0.70,
			Rationale:  "forecast high 89°F, 4° above boundary",
		},
		Side:      side,
		Edge:      edge,
		Stake:     50,
		ScannedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func makePlan(id, ticker string, ev float64) domain.HedgePlan {
	return domain.HedgePlan{
		ID: id,
		Key: domain.GroupKey{
			Location: "Denver, CO",
			Date:     "2026-01-12",
			Metric:   domain.MetricMax,
		},
		Primary:      makeOpportunity(ticker, 0.35, domain.SideYes),
		PrimaryStake: 60,
		Legs: []domain.HedgeLeg{
			{Opportunity: makeOpportunity(ticker+"-L1", 0.25, domain.SideYes), Kind: domain.HedgeComplementary, Stake: 25},
			{Opportunity: makeOpportunity(ticker+"-L2", 0.22, domain.SideNo), Kind: domain.HedgeTrue, Stake: 15},
		},
		ExpectedValue: ev,
		WorstReturn:   -60,
		BestReturn:    140,
		SharpeRatio:   1.8,
		MaxDrawdown:   60,
		Budget:        100,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestSQLiteStorage_SaveAndGetHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	opps := []domain.Opportunity{
		makeOpportunity("KXHIGHDEN-26JAN12-B85", 0.35, domain.SideYes),
		makeOpportunity("KXHIGHDEN-26JAN12-B87", 0.21, domain.SideNo),
	}

	err = db.SaveScan(context.Background(), opps, nil)
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Minute)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.GetHistory(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Ordenadas por edge desc
	assert.InDelta(t, 0.35, history[0].Edge, 0.001)
	assert.InDelta(t, 0.21, history[1].Edge, 0.001)
	assert.Equal(t, "KXHIGHDEN-26JAN12-B85", history[0].Market.Ticker)
	assert.Equal(t, domain.SideYes, history[0].Side)
	assert.Equal(t, domain.SideNo, history[1].Side)
}

func TestSQLiteStorage_SaveEmpty(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = db.SaveScan(context.Background(), nil, nil)
	assert.NoError(t, err)
}

func TestSQLiteStorage_GetHistory_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.GetHistory(context.Background(),
		time.Now().Add(-time.Hour),
		time.Now(),
	)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStorage_SkipsUnchangedOpportunities(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.300, domain.SideYes)}, nil)
	require.NoError(t, err)

	// cambio relativo de edge < 5% y mismo lado → no se reescribe
	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.305, domain.SideYes)}, nil)
	require.NoError(t, err)

	history, err := db.GetHistory(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 0.300, history[0].Edge, 0.0001)

	// cambio grande → sí se reescribe
	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.40, domain.SideYes)}, nil)
	require.NoError(t, err)

	history, err = db.GetHistory(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 0.40, history[0].Edge, 0.0001)
}

func TestSQLiteStorage_SideChangeForcesRewrite(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.30, domain.SideYes)}, nil)
	require.NoError(t, err)

	// mismo edge pero el lado cambió → hay que persistirlo
	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.30, domain.SideNo)}, nil)
	require.NoError(t, err)

	history, err := db.GetHistory(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SideNo, history[0].Side)
}

func TestSQLiteStorage_HedgePlansRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	plan := makePlan("plan-001", "T-1", 12.5)

	err = db.SaveScan(ctx, nil, []domain.HedgePlan{plan})
	require.NoError(t, err)

	plans, err := db.GetHedgePlans(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, plans, 1)

	got := plans[0]
	assert.Equal(t, "plan-001", got.ID)
	assert.Equal(t, "Denver, CO", got.Key.Location)
	assert.Equal(t, "2026-01-12", got.Key.Date)
	assert.Equal(t, domain.MetricMax, got.Key.Metric)
	assert.Equal(t, "T-1", got.Primary.Market.Ticker)
	assert.InDelta(t, 60.0, got.PrimaryStake, 0.001)
	assert.InDelta(t, 12.5, got.ExpectedValue, 0.001)
	assert.InDelta(t, -60.0, got.WorstReturn, 0.001)
	assert.InDelta(t, 140.0, got.BestReturn, 0.001)
	assert.InDelta(t, 1.8, got.SharpeRatio, 0.001)

	require.Len(t, got.Legs, 2)
	assert.Equal(t, "T-1-L1", got.Legs[0].Opportunity.Market.Ticker)
	assert.Equal(t, domain.HedgeComplementary, got.Legs[0].Kind)
	assert.InDelta(t, 25.0, got.Legs[0].Stake, 0.001)
	assert.Equal(t, domain.HedgeTrue, got.Legs[1].Kind)
}

func TestSQLiteStorage_GetHedgePlans_OrderedByEV(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.SaveScan(ctx, nil, []domain.HedgePlan{
		makePlan("plan-low", "T-1", 3.0),
		makePlan("plan-high", "T-2", 20.0),
	})
	require.NoError(t, err)

	plans, err := db.GetHedgePlans(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "plan-high", plans[0].ID)
	assert.Equal(t, "plan-low", plans[1].ID)
}

func TestSQLiteStorage_Prune(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.SaveScan(ctx,
		[]domain.Opportunity{makeOpportunity("T-1", 0.30, domain.SideYes)},
		[]domain.HedgePlan{makePlan("plan-001", "T-1", 5.0)},
	)
	require.NoError(t, err)

	err = db.Prune(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	history, err := db.GetHistory(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, history)

	plans, err := db.GetHedgePlans(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestSQLiteStorage_MultipleSaves(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	err = db.SaveScan(ctx, []domain.Opportunity{makeOpportunity("T-1", 0.25, domain.SideYes)}, nil)
	require.NoError(t, err)

	err = db.SaveScan(ctx, []domain.Opportunity{
		makeOpportunity("T-1", 0.45, domain.SideYes),
		makeOpportunity("T-2", 0.22, domain.SideNo),
	}, nil)
	require.NoError(t, err)

	// upsert: una fila por ticker, no una por ciclo
	history, err := db.GetHistory(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
