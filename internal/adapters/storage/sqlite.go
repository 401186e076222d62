package storage

// sqlite.go — almacenamiento eficiente y sin ruido.
//
// Estrategia:
//   - `scans`: resumen ligero por ciclo (conteo, mejor edge). Siempre 1 fila.
//   - `opportunities`: UNA fila por mercado (UPSERT), con cache en memoria
//     que evita writes si el estado no cambió (> 5% en edge, o cambio de
//     lado). Los mercados de temperatura viven pocos días: la mayoría de
//     ciclos no reescriben nada.
//   - `hedge_plans` + `hedge_legs`: un insert por plan generado.
//   - Prune automático al arrancar: scans > 30d, oportunidades y planes
//     no vistos en 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS scans (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    scanned_at    DATETIME NOT NULL,
    opportunities INTEGER  NOT NULL DEFAULT 0,
    hedge_plans   INTEGER  NOT NULL DEFAULT 0,
    best_edge     REAL     NOT NULL DEFAULT 0
);

-- Una fila por mercado con edge, sin duplicados
CREATE TABLE IF NOT EXISTS opportunities (
    ticker          TEXT PRIMARY KEY,
    title           TEXT,
    location        TEXT    NOT NULL,
    settlement_date TEXT    NOT NULL,
    metric          TEXT    NOT NULL,
    condition       TEXT    NOT NULL,
    side            TEXT    NOT NULL,
    edge            REAL    NOT NULL DEFAULT 0,
    probability     REAL    NOT NULL DEFAULT 0,
    confidence      REAL    NOT NULL DEFAULT 0,
    in_zone         INTEGER NOT NULL DEFAULT 0,
    rationale       TEXT,
    entry_price     REAL    NOT NULL DEFAULT 0,
    stake           REAL    NOT NULL DEFAULT 0,
    first_seen      DATETIME NOT NULL,
    last_seen       DATETIME NOT NULL,
    peak_edge       REAL    NOT NULL DEFAULT 0
);

-- Un plan de cobertura por grupo correlacionado y ciclo que lo produjo
CREATE TABLE IF NOT EXISTS hedge_plans (
    id             TEXT PRIMARY KEY,
    location       TEXT    NOT NULL,
    settlement_date TEXT   NOT NULL,
    metric         TEXT    NOT NULL,
    primary_ticker TEXT    NOT NULL,
    primary_stake  REAL    NOT NULL DEFAULT 0,
    expected_value REAL    NOT NULL DEFAULT 0,
    worst_return   REAL    NOT NULL DEFAULT 0,
    best_return    REAL    NOT NULL DEFAULT 0,
    sharpe_ratio   REAL    NOT NULL DEFAULT 0,
    max_drawdown   REAL    NOT NULL DEFAULT 0,
    budget         REAL    NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS hedge_legs (
    plan_id TEXT NOT NULL REFERENCES hedge_plans(id) ON DELETE CASCADE,
    ticker  TEXT NOT NULL,
    kind    TEXT NOT NULL,
    stake   REAL NOT NULL DEFAULT 0,
    edge    REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_at    ON scans(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_last    ON opportunities(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_opp_edge    ON opportunities(edge DESC);
CREATE INDEX IF NOT EXISTS idx_plans_at    ON hedge_plans(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_legs_plan   ON hedge_legs(plan_id);
`

const (
	retentionScans = 30 * 24 * time.Hour
	retentionOpps  = 14 * 24 * time.Hour
	edgeChangePct  = 0.05 // 5% de cambio en edge → reescribir
)

// cachedState es el snapshot del último estado guardado de un mercado.
type cachedState struct {
	side string
	edge float64
}

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // ticker → estado guardado
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveScan persiste el resumen del ciclo, hace upsert de las oportunidades
// que cambiaron respecto al ciclo anterior, e inserta los planes generados.
func (s *SQLiteStorage) SaveScan(ctx context.Context, opportunities []domain.Opportunity, plans []domain.HedgePlan) error {
	if len(opportunities) == 0 && len(plans) == 0 {
		return nil
	}

	now := time.Now().UTC()

	bestEdge := 0.0
	for _, opp := range opportunities {
		if opp.Edge > bestEdge {
			bestEdge = opp.Edge
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (scanned_at, opportunities, hedge_plans, best_edge) VALUES (?, ?, ?, ?)`,
		now, len(opportunities), len(plans), bestEdge,
	); err != nil {
		return fmt.Errorf("storage.SaveScan: insert scan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.upsertOpportunities(ctx, tx, opportunities, now); err != nil {
		return err
	}
	if err := insertPlans(ctx, tx, plans); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveScan: commit: %w", err)
	}
	return nil
}

// upsertOpportunities escribe solo las oportunidades cuyo estado cambió.
func (s *SQLiteStorage) upsertOpportunities(ctx context.Context, tx *sql.Tx, opps []domain.Opportunity, now time.Time) error {
	toWrite := s.filterChanged(opps)
	if len(toWrite) == 0 {
		return nil // nada nuevo — la gran mayoría de ciclos terminan aquí
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(ticker, title, location, settlement_date, metric, condition, side,
			 edge, probability, confidence, in_zone, rationale, entry_price,
			 stake, first_seen, last_seen, peak_edge)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			title       = excluded.title,
			side        = excluded.side,
			edge        = excluded.edge,
			probability = excluded.probability,
			confidence  = excluded.confidence,
			in_zone     = excluded.in_zone,
			rationale   = excluded.rationale,
			entry_price = excluded.entry_price,
			stake       = excluded.stake,
			last_seen   = excluded.last_seen,
			peak_edge   = MAX(peak_edge, excluded.edge)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: prepare: %w", err)
	}
	defer stmt.Close()

	for _, opp := range toWrite {
		inZone := 0
		if opp.Estimate.InUncertaintyZone {
			inZone = 1
		}
		if _, err := stmt.ExecContext(ctx,
			opp.Market.Ticker,
			opp.Market.Title,
			opp.Market.Location,
			opp.Market.SettlementDate.Format("2006-01-02"),
			opp.Market.Metric.String(),
			opp.Market.Condition.String(),
			opp.Side.String(),
			opp.Edge,
			opp.Estimate.Value,
			opp.Estimate.Confidence,
			inZone,
			opp.Estimate.Rationale,
			opp.EntryPrice(),
			opp.Stake,
			now, // first_seen: ignorado en ON CONFLICT (no se sobreescribe)
			now, // last_seen
			opp.Edge,
		); err != nil {
			return fmt.Errorf("storage.SaveScan: upsert %s: %w", opp.Market.Ticker, err)
		}
	}
	return nil
}

// insertPlans inserta los planes del ciclo con sus patas.
func insertPlans(ctx context.Context, tx *sql.Tx, plans []domain.HedgePlan) error {
	for _, plan := range plans {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO hedge_plans
				(id, location, settlement_date, metric, primary_ticker,
				 primary_stake, expected_value, worst_return, best_return,
				 sharpe_ratio, max_drawdown, budget, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID,
			plan.Key.Location,
			plan.Key.Date,
			plan.Key.Metric.String(),
			plan.Primary.Market.Ticker,
			plan.PrimaryStake,
			plan.ExpectedValue,
			plan.WorstReturn,
			plan.BestReturn,
			sharpeForDB(plan.SharpeRatio),
			plan.MaxDrawdown,
			plan.Budget,
			plan.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("storage.SaveScan: insert plan %s: %w", plan.ID, err)
		}

		for _, leg := range plan.Legs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO hedge_legs (plan_id, ticker, kind, stake, edge)
				VALUES (?, ?, ?, ?, ?)`,
				plan.ID,
				leg.Opportunity.Market.Ticker,
				leg.Kind.String(),
				leg.Stake,
				leg.Opportunity.Edge,
			); err != nil {
				return fmt.Errorf("storage.SaveScan: insert leg %s/%s: %w", plan.ID, leg.Opportunity.Market.Ticker, err)
			}
		}
	}
	return nil
}

// GetHistory devuelve oportunidades cuyo last_seen está en el rango dado,
// ordenadas por edge descendente.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, title, location, settlement_date, side, edge,
		       probability, confidence, in_zone, rationale, stake, last_seen
		FROM opportunities
		WHERE last_seen BETWEEN ? AND ?
		ORDER BY edge DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var settlementDate, side, lastSeen string
		var inZone int

		if err := rows.Scan(
			&opp.Market.Ticker,
			&opp.Market.Title,
			&opp.Market.Location,
			&settlementDate,
			&side,
			&opp.Edge,
			&opp.Estimate.Value,
			&opp.Estimate.Confidence,
			&inZone,
			&opp.Estimate.Rationale,
			&opp.Stake,
			&lastSeen,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		opp.Market.SettlementDate, _ = time.Parse("2006-01-02", settlementDate)
		if side == "NO" {
			opp.Side = domain.SideNo
		}
		opp.Estimate.InUncertaintyZone = inZone == 1
		opp.ScannedAt, _ = time.Parse(time.RFC3339, lastSeen)
		opps = append(opps, opp)
	}

	return opps, rows.Err()
}

// GetHedgePlans devuelve los planes creados en el rango dado, con sus patas,
// ordenados por expected value descendente.
func (s *SQLiteStorage) GetHedgePlans(ctx context.Context, from, to time.Time) ([]domain.HedgePlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, settlement_date, metric, primary_ticker,
		       primary_stake, expected_value, worst_return, best_return,
		       sharpe_ratio, max_drawdown, budget, created_at
		FROM hedge_plans
		WHERE created_at BETWEEN ? AND ?
		ORDER BY expected_value DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHedgePlans: query: %w", err)
	}
	defer rows.Close()

	var plans []domain.HedgePlan
	for rows.Next() {
		var plan domain.HedgePlan
		var metric, createdAt string

		if err := rows.Scan(
			&plan.ID,
			&plan.Key.Location,
			&plan.Key.Date,
			&metric,
			&plan.Primary.Market.Ticker,
			&plan.PrimaryStake,
			&plan.ExpectedValue,
			&plan.WorstReturn,
			&plan.BestReturn,
			&plan.SharpeRatio,
			&plan.MaxDrawdown,
			&plan.Budget,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHedgePlans: scan row: %w", err)
		}

		plan.Key.Metric = metricFromString(metric)
		plan.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		legs, err := s.legsForPlan(ctx, plan.ID)
		if err != nil {
			return nil, err
		}
		plan.Legs = legs
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// legsForPlan carga las patas de un plan.
func (s *SQLiteStorage) legsForPlan(ctx context.Context, planID string) ([]domain.HedgeLeg, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, kind, stake, edge FROM hedge_legs WHERE plan_id = ?`, planID)
	if err != nil {
		return nil, fmt.Errorf("storage.legsForPlan: query: %w", err)
	}
	defer rows.Close()

	var legs []domain.HedgeLeg
	for rows.Next() {
		var leg domain.HedgeLeg
		var kind string
		if err := rows.Scan(&leg.Opportunity.Market.Ticker, &kind, &leg.Stake, &leg.Opportunity.Edge); err != nil {
			return nil, fmt.Errorf("storage.legsForPlan: scan row: %w", err)
		}
		if kind == domain.HedgeTrue.String() {
			leg.Kind = domain.HedgeTrue
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// Prune elimina scans, oportunidades y planes anteriores al instante dado.
func (s *SQLiteStorage) Prune(ctx context.Context, before time.Time) error {
	cutoff := before.UTC()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE scanned_at < ?`, cutoff); err != nil {
		return fmt.Errorf("storage.Prune: scans: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, cutoff); err != nil {
		return fmt.Errorf("storage.Prune: opportunities: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM hedge_legs WHERE plan_id IN (SELECT id FROM hedge_plans WHERE created_at < ?)`, cutoff); err != nil {
		return fmt.Errorf("storage.Prune: legs: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM hedge_plans WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("storage.Prune: plans: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged devuelve las oportunidades que cambiaron respecto al estado
// en caché, y actualiza la caché con el nuevo estado.
func (s *SQLiteStorage) filterChanged(opps []domain.Opportunity) []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toWrite []domain.Opportunity
	for _, opp := range opps {
		ticker := opp.Market.Ticker
		side := opp.Side.String()

		if prev, ok := s.cache[ticker]; ok {
			unchanged := prev.side == side &&
				relChange(prev.edge, opp.Edge) < edgeChangePct
			if unchanged {
				continue
			}
		}

		toWrite = append(toWrite, opp)
		s.cache[ticker] = cachedState{side: side, edge: opp.Edge}
	}
	return toWrite
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM scans WHERE scanned_at < ?`, now.Add(-retentionScans))
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, now.Add(-retentionOpps))
	s.db.ExecContext(ctx,
		`DELETE FROM hedge_legs WHERE plan_id IN (SELECT id FROM hedge_plans WHERE created_at < ?)`,
		now.Add(-retentionOpps))
	s.db.ExecContext(ctx, `DELETE FROM hedge_plans WHERE created_at < ?`, now.Add(-retentionOpps))
}

// warmCache precarga la caché desde la DB al arrancar, evitando escrituras
// redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, side, edge FROM opportunities`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var ticker, side string
		var edge float64
		if rows.Scan(&ticker, &side, &edge) == nil {
			s.cache[ticker] = cachedState{side: side, edge: edge}
		}
	}
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0 // forzar escritura si antes era 0
	}
	return math.Abs(new-old) / math.Abs(old)
}

// sharpeForDB acota el Sharpe infinito (desviación cero) a un centinela
// representable en SQLite.
func sharpeForDB(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

// metricFromString invierte Metric.String() para la lectura desde DB.
func metricFromString(s string) domain.Metric {
	switch s {
	case "minimum":
		return domain.MetricMin
	case "average":
		return domain.MetricAvg
	default:
		return domain.MetricMax
	}
}
