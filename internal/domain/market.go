package domain

import (
	"fmt"
	"time"
)

// Metric es la estadística diaria sobre la que resuelve un mercado.
type Metric int

const (
	MetricMin Metric = iota // mínima diaria
	MetricMax               // máxima diaria
	MetricAvg               // media diaria
)

// String devuelve el nombre legible de la métrica.
func (m Metric) String() string {
	switch m {
	case MetricMin:
		return "minimum"
	case MetricMax:
		return "maximum"
	case MetricAvg:
		return "average"
	default:
		return "unknown"
	}
}

// Side es el lado de un mercado binario.
type Side int

const (
	SideYes Side = iota
	SideNo
)

// String devuelve "YES" o "NO".
func (s Side) String() string {
	if s == SideNo {
		return "NO"
	}
	return "YES"
}

// Market representa un mercado binario de temperatura en Kalshi,
// ya parseado a su forma canónica.
type Market struct {
	Ticker         string
	Title          string
	Location       string // "Denver, CO"
	SettlementDate time.Time
	Metric         Metric
	Condition      Condition
	YesPrice       float64 // en (0,1), derivado del bid en centavos
	NoPrice        float64
	Liquidity      float64 // USD en el pool
	CloseTime      time.Time
}

// GroupKey identifica el observable de settlement: todos los mercados con
// la misma key resuelven contra el mismo valor escalar observado.
type GroupKey struct {
	Location string
	Date     string // YYYY-MM-DD
	Metric   Metric
}

// String devuelve la key en formato legible para logs.
func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Location, k.Date, k.Metric)
}

// GroupKey devuelve la key del observable contra el que resuelve el mercado.
func (m Market) GroupKey() GroupKey {
	return GroupKey{
		Location: m.Location,
		Date:     m.SettlementDate.Format("2006-01-02"),
		Metric:   m.Metric,
	}
}

// PriceOf devuelve el precio del lado dado.
func (m Market) PriceOf(side Side) float64 {
	if side == SideNo {
		return m.NoPrice
	}
	return m.YesPrice
}
