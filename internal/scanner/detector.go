package scanner

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
)

const (
	defaultMinEdge       = 0.20
	defaultKellyFraction = 0.25
	defaultBankroll      = 1000.0
)

// Detector compara la probabilidad modelada con el precio de mercado y
// produce una Opportunity cuando el edge supera el mínimo configurado.
type Detector struct {
	model         *domain.Model
	bankroll      float64
	kellyFraction float64
	minEdge       float64
	minLiquidity  float64
}

// NewDetector crea un Detector con los parámetros dados.
func NewDetector(model *domain.Model, bankroll, kellyFraction, minEdge, minLiquidity float64) *Detector {
	if model == nil {
		model = domain.NewModel(domain.ModelParams{})
	}
	if bankroll <= 0 {
		bankroll = defaultBankroll
	}
	if kellyFraction <= 0 {
		kellyFraction = defaultKellyFraction
	}
	if minEdge <= 0 {
		minEdge = defaultMinEdge
	}
	return &Detector{
		model:         model,
		bankroll:      bankroll,
		kellyFraction: kellyFraction,
		minEdge:       minEdge,
		minLiquidity:  minLiquidity,
	}
}

// Detect evalúa un mercado contra el estado del observable. Devuelve
// ok=false si no hay edge suficiente; error solo ante inputs inválidos
// (el caller salta el mercado y sigue con el resto).
func (d *Detector) Detect(market domain.Market, obs domain.ObservationStats, now time.Time) (domain.Opportunity, bool, error) {
	if market.YesPrice <= 0 || market.YesPrice >= 1 || market.NoPrice <= 0 || market.NoPrice >= 1 {
		return domain.Opportunity{}, false, &domain.ConfigurationError{
			Msg: fmt.Sprintf("market %s: prices outside (0,1): yes=%g no=%g", market.Ticker, market.YesPrice, market.NoPrice),
		}
	}
	if d.minLiquidity > 0 && market.Liquidity < d.minLiquidity {
		return domain.Opportunity{}, false, nil
	}

	est := d.model.Estimate(market.Condition, obs)

	edgeYes := est.Value - market.YesPrice
	edgeNo := (1 - est.Value) - market.NoPrice

	side, edge := domain.SideYes, edgeYes
	if edgeNo > edgeYes {
		side, edge = domain.SideNo, edgeNo
	}
	if edge < d.minEdge {
		return domain.Opportunity{}, false, nil
	}

	p := est.Value
	if side == domain.SideNo {
		p = 1 - est.Value
	}
	fraction, err := domain.FractionalKelly(p, market.PriceOf(side), d.kellyFraction)
	if err != nil {
		return domain.Opportunity{}, false, fmt.Errorf("detector: market %s: %w", market.Ticker, err)
	}

	return domain.Opportunity{
		Market:        market,
		Estimate:      est,
		EdgeYes:       edgeYes,
		EdgeNo:        edgeNo,
		Side:          side,
		Edge:          edge,
		Stake:         d.bankroll * fraction,
		StakeFraction: fraction,
		ScannedAt:     now,
	}, true, nil
}
