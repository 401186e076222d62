package domain

import (
	"fmt"
	"math"
)

// ModelParams parametriza la curva de probabilidad. Todo es configurable
// para poder calibrar el modelo sin tocar el resto del pipeline.
type ModelParams struct {
	// SaturationDistance: distancia (en grados) a la que la curva alcanza
	// MaxProbability. Refleja el margen de error típico del forecast.
	SaturationDistance float64
	// UncertaintyBand: distancia al boundary por debajo de la cual una
	// observación entra en la zona de incertidumbre. El valor mostrado por
	// la estación es una media redondeada y puede cruzar el boundary entero
	// en el registro oficial aunque ahora parezca decisivo.
	UncertaintyBand float64
	// ConfidencePenalty: recorte de la distancia-a-certeza dentro de la zona.
	// Cero significa "sin calibrar" y toma el default; un valor negativo
	// desactiva el recorte (penalty efectivo 0).
	ConfidencePenalty float64
	// MaxProbability: techo de la curva. El suelo es su complemento.
	MaxProbability float64
}

// DefaultModelParams devuelve la calibración de producción.
func DefaultModelParams() ModelParams {
	return ModelParams{
		SaturationDistance: 5.0,
		UncertaintyBand:    1.0,
		ConfidencePenalty:  0.30,
		MaxProbability:     0.95,
	}
}

// Estimate es el resultado inmutable del modelo para un par
// (Condition, ObservationStats). Cualquier cambio en los inputs
// produce un estimate nuevo.
type Estimate struct {
	Value             float64 // P(condición resuelve YES), en [0,1]
	Confidence        float64 // en [0,1]
	InUncertaintyZone bool
	Rationale         string // justificación legible, p.ej. "past peak, 3.0° outside range"
}

// Model estima la probabilidad de que el observable de settlement resuelva
// una condición, en función de la distancia del valor relevante al boundary.
// Es puro y determinista: sin estado, sin red, sin caché.
type Model struct {
	params ModelParams
}

// NewModel crea un Model. Los parámetros en cero toman su default.
func NewModel(p ModelParams) *Model {
	def := DefaultModelParams()
	if p.SaturationDistance <= 0 {
		p.SaturationDistance = def.SaturationDistance
	}
	if p.UncertaintyBand <= 0 {
		p.UncertaintyBand = def.UncertaintyBand
	}
	if p.ConfidencePenalty == 0 {
		p.ConfidencePenalty = def.ConfidencePenalty
	} else if p.ConfidencePenalty < 0 {
		p.ConfidencePenalty = 0
	}
	if p.MaxProbability <= 0 || p.MaxProbability >= 1 {
		p.MaxProbability = def.MaxProbability
	}
	return &Model{params: p}
}

// Params devuelve la calibración activa del modelo.
func (m *Model) Params() ModelParams {
	return m.params
}

// Estimate calcula la probabilidad de que la condición resuelva YES dados
// los datos disponibles del observable.
func (m *Model) Estimate(cond Condition, obs ObservationStats) Estimate {
	v, source, ok := m.relevantValue(cond, obs)
	if !ok {
		// Sin observación y sin extremo fijado no fabricamos confianza
		// desde un forecast: el extremo todavía puede moverse en contra.
		return Estimate{
			Value:      0.5,
			Confidence: 0.5,
			Rationale:  "too early to resolve",
		}
	}

	dist := cond.SignedDistance(v)
	p := m.baseProbability(dist)

	boundaryDist := cond.BoundaryDistance(v)
	inZone := boundaryDist <= m.params.UncertaintyBand

	// Confianza = distancia a 0.5, recortada dentro de la zona de
	// incertidumbre (el entero mostrado puede redondear al otro lado
	// en el registro oficial).
	certainty := math.Abs(p - 0.5)
	if inZone {
		certainty *= 1 - m.params.ConfidencePenalty
	}

	return Estimate{
		Value:             p,
		Confidence:        0.5 + certainty,
		InUncertaintyZone: inZone,
		Rationale:         rationale(source, cond, dist),
	}
}

// relevantValue decide qué valor comparar contra la condición:
//  1. preliminary climate report si existe (fuente de settlement revisada),
//  2. extremo observado si el pico ya pasó (el valor está fijado),
//  3. con observaciones en curso, el candidato más favorable a la condición
//     entre el extremo parcial y el forecast (el extremo aún puede moverse),
//  4. sin observación y sin pico pasado → no hay valor relevante.
func (m *Model) relevantValue(cond Condition, obs ObservationStats) (float64, string, bool) {
	if v, ok := obs.PreliminaryValue(); ok {
		return v, "preliminary report", true
	}

	if obs.IsPastPeakTime {
		if v, ok := obs.RealizedExtreme(); ok {
			return v, "past peak", true
		}
		// Pico pasado pero la estación no reportó: caer al forecast.
		if v, ok := obs.ForecastValue(); ok {
			return v, "forecast (no obs)", true
		}
		return 0, "", false
	}

	if !obs.HasObservation {
		return 0, "", false
	}

	realized, _ := obs.RealizedExtreme()
	best, source := realized, "partial obs"
	if fv, ok := obs.ForecastValue(); ok {
		if cond.SignedDistance(fv) > cond.SignedDistance(best) {
			best, source = fv, "forecast"
		}
	}
	return best, source, true
}

// baseProbability mapea la distancia con signo a probabilidad: 0.5 en el
// boundary, MaxProbability al saturar en el lado que satisface, el
// complemento al saturar en el contrario. Monótona y simétrica.
func (m *Model) baseProbability(dist float64) float64 {
	ramp := dist / m.params.SaturationDistance
	if ramp > 1 {
		ramp = 1
	}
	if ramp < -1 {
		ramp = -1
	}
	return 0.5 + (m.params.MaxProbability-0.5)*ramp
}

// rationale construye la justificación legible del estimate.
func rationale(source string, cond Condition, dist float64) string {
	noun := "threshold"
	if cond.Kind == KindRange {
		noun = "range"
	}
	rel := "inside"
	if dist < 0 {
		rel = "outside"
	}
	if dist == 0 {
		return fmt.Sprintf("%s, exactly on %s boundary", source, noun)
	}
	return fmt.Sprintf("%s, %.1f° %s %s", source, math.Abs(dist), rel, noun)
}
