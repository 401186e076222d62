package domain

import "time"

// ObservationStats agrega todo lo que sabemos del observable de settlement
// de una (location, fecha, métrica) en el momento del scan: extremos
// observados hasta ahora, forecast del modelo, y el preliminary climate
// report cuando ya existe.
type ObservationStats struct {
	Location string
	Date     time.Time
	Metric   Metric

	// Observaciones de la estación hasta el momento del scan.
	HasObservation  bool
	MinSoFar        float64
	MaxSoFar        float64
	AvgSoFar        float64
	LatestValue     float64
	ObservationTime time.Time

	// IsPastPeakTime es true una vez pasado el pico climatológico de la
	// métrica (pre-amanecer para la mínima, media tarde para la máxima):
	// el extremo ya no puede moverse en la dirección adversa.
	IsPastPeakTime bool

	// Forecast del modelo. Solo se usa antes de que el extremo quede fijado.
	HasForecast bool
	ForecastMin float64
	ForecastMax float64

	// Preliminary climate report: resumen pre-oficial de la fuente de
	// settlement. Cuando existe se prefiere sobre el extremo observado crudo.
	HasPreliminary bool
	PreliminaryMin float64
	PreliminaryMax float64
}

// RealizedExtreme devuelve el extremo observado hasta ahora para la métrica.
func (o ObservationStats) RealizedExtreme() (float64, bool) {
	if !o.HasObservation {
		return 0, false
	}
	switch o.Metric {
	case MetricMin:
		return o.MinSoFar, true
	case MetricMax:
		return o.MaxSoFar, true
	case MetricAvg:
		return o.AvgSoFar, true
	default:
		return 0, false
	}
}

// PreliminaryValue devuelve el valor del preliminary climate report para la
// métrica. El preliminary solo publica min/max; para la media no aplica.
func (o ObservationStats) PreliminaryValue() (float64, bool) {
	if !o.HasPreliminary {
		return 0, false
	}
	switch o.Metric {
	case MetricMin:
		return o.PreliminaryMin, true
	case MetricMax:
		return o.PreliminaryMax, true
	default:
		return 0, false
	}
}

// ForecastValue devuelve el valor del forecast para la métrica.
func (o ObservationStats) ForecastValue() (float64, bool) {
	if !o.HasForecast {
		return 0, false
	}
	switch o.Metric {
	case MetricMin:
		return o.ForecastMin, true
	case MetricMax:
		return o.ForecastMax, true
	case MetricAvg:
		return (o.ForecastMin + o.ForecastMax) / 2, true
	default:
		return 0, false
	}
}
