package domain

import (
	"time"

	"github.com/google/uuid"
)

// CorrelatedGroup agrupa las oportunidades que resuelven contra el mismo
// observable de settlement. Dentro del grupo los resultados no son
// independientes: un único valor observado decide todos los mercados.
type CorrelatedGroup struct {
	Key           GroupKey
	Opportunities []Opportunity
}

// GroupBySettlement particiona las oportunidades por observable de settlement.
// Es estable: los grupos aparecen en el orden de su primera oportunidad y
// cada grupo preserva el orden del input. Sin oportunidades → slice vacío.
func GroupBySettlement(opps []Opportunity) []CorrelatedGroup {
	groups := make([]CorrelatedGroup, 0)
	index := make(map[GroupKey]int)
	for _, opp := range opps {
		key := opp.Market.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CorrelatedGroup{Key: key})
		}
		groups[i].Opportunities = append(groups[i].Opportunities, opp)
	}
	return groups
}

// HedgeKind clasifica la relación de una pata con la posición primaria.
type HedgeKind int

const (
	// HedgeComplementary: puede ganar en escenarios donde la primaria también gana.
	HedgeComplementary HedgeKind = iota
	// HedgeTrue: solo gana en escenarios donde la primaria pierde.
	HedgeTrue
)

// String devuelve el nombre legible del kind.
func (k HedgeKind) String() string {
	if k == HedgeTrue {
		return "hedge"
	}
	return "complementary"
}

// HedgeLeg es una posición secundaria dentro de un plan de cobertura.
type HedgeLeg struct {
	Opportunity Opportunity
	Kind        HedgeKind
	Stake       float64 // USD asignados a la pata
}

// HedgePlan es una cartera coherente sobre un único observable: una posición
// primaria más hasta tres patas secundarias, con las métricas de riesgo del
// conjunto evaluadas sobre los escenarios de settlement posibles.
type HedgePlan struct {
	ID  string
	Key GroupKey

	Primary      Opportunity
	PrimaryStake float64
	Legs         []HedgeLeg

	// Métricas sobre la distribución de payoffs por escenario.
	ExpectedValue float64
	WorstReturn   float64 // payoff neto del peor escenario
	BestReturn    float64 // payoff neto del mejor escenario
	SharpeRatio   float64 // +Inf si la desviación es cero
	MaxDrawdown   float64 // pérdida del peor escenario, acotada por Budget

	Budget    float64
	CreatedAt time.Time
}

// NewHedgePlanID genera el identificador único de un plan.
func NewHedgePlanID() string {
	return uuid.NewString()
}

// TotalStake devuelve el capital total comprometido por el plan.
func (p HedgePlan) TotalStake() float64 {
	total := p.PrimaryStake
	for _, leg := range p.Legs {
		total += leg.Stake
	}
	return total
}

// Empty devuelve true si el plan no compromete capital.
func (p HedgePlan) Empty() bool {
	return p.PrimaryStake == 0 && len(p.Legs) == 0
}
