package domain

import "time"

// Opportunity es un mispricing detectado: la diferencia entre nuestra
// probabilidad modelada y el precio de mercado supera el edge mínimo.
type Opportunity struct {
	Market   Market
	Estimate Estimate

	// Edge por lado: EdgeYes = p − YesPrice, EdgeNo = (1−p) − NoPrice.
	EdgeYes float64
	EdgeNo  float64

	// Side y Edge del lado recomendado (el de mayor edge positivo).
	Side Side
	Edge float64

	// Stake en USD según quarter-Kelly sobre la banca configurada.
	Stake float64
	// StakeFraction es la fracción de banca ya reducida por el multiplicador.
	StakeFraction float64

	ScannedAt time.Time
}

// EntryPrice devuelve el precio de entrada del lado recomendado.
func (o Opportunity) EntryPrice() float64 {
	return o.Market.PriceOf(o.Side)
}

// ModelProbability devuelve la probabilidad de ganar del lado recomendado.
func (o Opportunity) ModelProbability() float64 {
	if o.Side == SideNo {
		return 1 - o.Estimate.Value
	}
	return o.Estimate.Value
}
