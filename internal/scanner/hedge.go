package scanner

import (
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
)

const (
	defaultHedgeBudget = 100.0
	defaultMaxLegs     = 3
	// primaryShare: fracción del presupuesto reservada para la posición primaria.
	primaryShare = 0.60
	// scenarioFloorWeight: peso mínimo de cualquier escenario. Ningún valor de
	// settlement enumerado se trata como imposible.
	scenarioFloorWeight = 0.05
)

// HedgeOptimizer construye un plan de cobertura por grupo correlacionado:
// la oportunidad de mayor edge como primaria más hasta MaxLegs patas
// secundarias consistentes, evaluadas sobre los escenarios de settlement
// que los boundaries del grupo distinguen.
type HedgeOptimizer struct {
	params  domain.ModelParams
	budget  float64
	maxLegs int
}

// NewHedgeOptimizer crea un optimizador con el presupuesto por grupo dado.
func NewHedgeOptimizer(params domain.ModelParams, budget float64, maxLegs int) *HedgeOptimizer {
	def := domain.DefaultModelParams()
	if params.SaturationDistance <= 0 {
		params.SaturationDistance = def.SaturationDistance
	}
	if budget <= 0 {
		budget = defaultHedgeBudget
	}
	if maxLegs <= 0 {
		maxLegs = defaultMaxLegs
	}
	return &HedgeOptimizer{params: params, budget: budget, maxLegs: maxLegs}
}

// Optimize construye el plan del grupo. Grupo vacío → plan vacío.
func (h *HedgeOptimizer) Optimize(group domain.CorrelatedGroup, obs domain.ObservationStats, now time.Time) domain.HedgePlan {
	if len(group.Opportunities) == 0 {
		return domain.HedgePlan{}
	}

	opps := make([]domain.Opportunity, len(group.Opportunities))
	copy(opps, group.Opportunities)
	sort.SliceStable(opps, func(i, j int) bool { return opps[i].Edge > opps[j].Edge })

	primary := opps[0]
	primaryStake := math.Min(primary.Stake, primaryShare*h.budget)

	scenarios := scenarioValues(opps)
	weights := h.scenarioWeights(scenarios, obs)

	primaryWins := make([]bool, len(scenarios))
	for i, v := range scenarios {
		primaryWins[i] = sideWins(primary, v)
	}

	legs := h.selectLegs(opps[1:], scenarios, primaryWins)
	h.allocate(legs, primaryStake)

	m := h.metrics(primary, primaryStake, legs, scenarios, weights)

	return domain.HedgePlan{
		ID:            domain.NewHedgePlanID(),
		Key:           group.Key,
		Primary:       primary,
		PrimaryStake:  primaryStake,
		Legs:          legs,
		ExpectedValue: m.ev,
		WorstReturn:   m.worst,
		BestReturn:    m.best,
		SharpeRatio:   m.sharpe,
		MaxDrawdown:   m.drawdown,
		Budget:        h.budget,
		CreatedAt:     now,
	}
}

// selectLegs clasifica las candidatas contra los escenarios donde la
// primaria gana y devuelve las mejores por edge. Una pata que no gana en
// ningún escenario enumerado es inconsistente con el grupo y se descarta.
func (h *HedgeOptimizer) selectLegs(candidates []domain.Opportunity, scenarios []float64, primaryWins []bool) []domain.HedgeLeg {
	legs := make([]domain.HedgeLeg, 0, h.maxLegs)
	for _, cand := range candidates {
		if len(legs) == h.maxLegs {
			break
		}
		winsAny, winsWithPrimary := false, false
		for i, v := range scenarios {
			if !sideWins(cand, v) {
				continue
			}
			winsAny = true
			if primaryWins[i] {
				winsWithPrimary = true
			}
		}
		if !winsAny {
			continue
		}
		kind := domain.HedgeTrue
		if winsWithPrimary {
			kind = domain.HedgeComplementary
		}
		legs = append(legs, domain.HedgeLeg{Opportunity: cand, Kind: kind})
	}
	return legs
}

// allocate reparte el presupuesto restante entre las patas, proporcional a
// su edge y acotado por el stake Kelly propio de cada una.
func (h *HedgeOptimizer) allocate(legs []domain.HedgeLeg, primaryStake float64) {
	if len(legs) == 0 {
		return
	}
	remaining := h.budget - primaryStake
	if remaining <= 0 {
		return
	}
	totalEdge := 0.0
	for _, leg := range legs {
		totalEdge += leg.Opportunity.Edge
	}
	if totalEdge <= 0 {
		return
	}
	for i := range legs {
		share := remaining * legs[i].Opportunity.Edge / totalEdge
		legs[i].Stake = math.Min(share, legs[i].Opportunity.Stake)
	}
}

// planMetrics es el resumen de la distribución de payoffs de un plan.
type planMetrics struct {
	ev, worst, best  float64
	sharpe, drawdown float64
}

// metrics evalúa la distribución de payoffs del plan sobre los escenarios.
func (h *HedgeOptimizer) metrics(primary domain.Opportunity, primaryStake float64, legs []domain.HedgeLeg, scenarios, weights []float64) planMetrics {
	payoffs := make([]float64, len(scenarios))
	m := planMetrics{worst: math.Inf(1), best: math.Inf(-1)}
	for i, v := range scenarios {
		total := payoff(primary, primaryStake, v)
		for _, leg := range legs {
			total += payoff(leg.Opportunity, leg.Stake, v)
		}
		payoffs[i] = total
		if total < m.worst {
			m.worst = total
		}
		if total > m.best {
			m.best = total
		}
		m.ev += weights[i] * total
	}

	variance := 0.0
	for i, p := range payoffs {
		variance += weights[i] * (p - m.ev) * (p - m.ev)
	}
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		m.sharpe = math.Inf(1)
	} else {
		m.sharpe = m.ev / stdev
	}

	m.drawdown = math.Min(h.budget, math.Max(0, -m.worst))
	return m
}

// scenarioValues enumera los valores de settlement que distinguen las
// condiciones del grupo: cada boundary ±1 grado cubre ambos lados de todas
// las comparaciones inclusivas del dominio entero.
func scenarioValues(opps []domain.Opportunity) []float64 {
	seen := make(map[float64]struct{})
	values := make([]float64, 0, len(opps)*6)
	for _, opp := range opps {
		for _, b := range opp.Market.Condition.Boundaries() {
			for _, v := range []float64{b - 1, b, b + 1} {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
	}
	sort.Float64s(values)
	return values
}

// scenarioWeights pondera cada escenario con un kernel triangular centrado
// en el valor ancla del observable, con suelo para no descartar ninguno.
func (h *HedgeOptimizer) scenarioWeights(scenarios []float64, obs domain.ObservationStats) []float64 {
	anchor, ok := anchorValue(obs)
	if !ok && len(scenarios) > 0 {
		// Sin datos: centrar en la mediana de los escenarios.
		anchor = scenarios[len(scenarios)/2]
	}
	width := 2 * h.params.SaturationDistance

	weights := make([]float64, len(scenarios))
	sum := 0.0
	for i, v := range scenarios {
		w := 1 - math.Abs(v-anchor)/width
		if w < scenarioFloorWeight {
			w = scenarioFloorWeight
		}
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// anchorValue elige el valor más informado del observable, con la misma
// precedencia que el modelo de probabilidad.
func anchorValue(obs domain.ObservationStats) (float64, bool) {
	if v, ok := obs.PreliminaryValue(); ok {
		return v, true
	}
	if obs.IsPastPeakTime {
		if v, ok := obs.RealizedExtreme(); ok {
			return v, true
		}
	}
	if v, ok := obs.RealizedExtreme(); ok {
		return v, true
	}
	if v, ok := obs.ForecastValue(); ok {
		return v, true
	}
	return 0, false
}

// sideWins devuelve true si el lado recomendado de la oportunidad gana
// cuando el observable resuelve en v.
func sideWins(opp domain.Opportunity, v float64) bool {
	yes := opp.Market.Condition.Satisfies(v)
	if opp.Side == domain.SideNo {
		return !yes
	}
	return yes
}

// payoff devuelve el P&L de la posición cuando el observable resuelve en v:
// gana stake×(1/price − 1) o pierde el stake entero.
func payoff(opp domain.Opportunity, stake, v float64) float64 {
	if stake <= 0 {
		return 0
	}
	if sideWins(opp, v) {
		price := opp.EntryPrice()
		return stake * (1/price - 1)
	}
	return -stake
}
