package domain

import (
	"fmt"
	"math"
	"strings"
)

// ConditionKind identifica el tipo de predicado de settlement de un mercado.
// Es un variant cerrado: todo consumidor hace switch exhaustivo sobre él.
type ConditionKind int

const (
	// KindAtLeast: el observable resuelve YES si valor >= Low.
	KindAtLeast ConditionKind = iota
	// KindAtMost: el observable resuelve YES si valor <= High.
	KindAtMost
	// KindRange: el observable resuelve YES si Low <= valor <= High.
	KindRange
)

// String devuelve el nombre legible del kind.
func (k ConditionKind) String() string {
	switch k {
	case KindAtLeast:
		return "at_least"
	case KindAtMost:
		return "at_most"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Condition es la forma canónica inclusiva del predicado de un mercado.
//
// Tras la normalización nunca quedan comparaciones estrictas: el registro
// oficial de settlement se publica como entero, así que "X° or above" y
// ">(X-1)°" denotan el mismo evento y deben compartir forma canónica.
// Confundir la forma estricta con la inclusiva desplaza un grado entero
// de masa de probabilidad.
type Condition struct {
	Kind ConditionKind
	Low  float64 // usado por at_least y range
	High float64 // usado por at_most y range
}

// AtLeast construye la condición "valor >= v".
func AtLeast(v float64) Condition {
	return Condition{Kind: KindAtLeast, Low: v}
}

// AtMost construye la condición "valor <= v".
func AtMost(v float64) Condition {
	return Condition{Kind: KindAtMost, High: v}
}

// Normalize convierte un operador de comparación crudo y su valor en la
// forma canónica inclusiva. Los operadores estrictos se desplazan un grado
// entero (el dominio de settlement es entero); las formas inclusivas pasan
// sin cambios. Operador desconocido → *ParseError.
func Normalize(operator string, value float64) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(operator)) {
	case "at least", "or above", ">=":
		return AtLeast(value), nil
	case "at most", "or below", "<=":
		return AtMost(value), nil
	case ">":
		return AtLeast(value + 1), nil
	case "<":
		return AtMost(value - 1), nil
	default:
		return Condition{}, &ParseError{Msg: fmt.Sprintf("unrecognized comparison operator %q", operator)}
	}
}

// NormalizeRange construye la condición de bucket explícito [low, high].
// Bounds invertidos → *ParseError, nunca se corrigen en silencio.
func NormalizeRange(low, high float64) (Condition, error) {
	if low > high {
		return Condition{}, &ParseError{Msg: fmt.Sprintf("inverted range bounds [%g, %g]", low, high)}
	}
	return Condition{Kind: KindRange, Low: low, High: high}, nil
}

// Satisfies devuelve true si el valor observado resuelve la condición YES.
func (c Condition) Satisfies(v float64) bool {
	switch c.Kind {
	case KindAtLeast:
		return v >= c.Low
	case KindAtMost:
		return v <= c.High
	case KindRange:
		return v >= c.Low && v <= c.High
	default:
		return false
	}
}

// SignedDistance devuelve la distancia con signo de v al boundary más
// cercano de la condición: positiva si v la satisface, negativa si no.
// Para ranges con v dentro, la distancia es al boundary más próximo.
func (c Condition) SignedDistance(v float64) float64 {
	switch c.Kind {
	case KindAtLeast:
		return v - c.Low
	case KindAtMost:
		return c.High - v
	case KindRange:
		if v < c.Low {
			return v - c.Low
		}
		if v > c.High {
			return c.High - v
		}
		return math.Min(v-c.Low, c.High-v)
	default:
		return 0
	}
}

// BoundaryDistance devuelve la distancia absoluta de v al boundary tocado
// más cercano. Para ranges solo el boundary próximo importa: si v está cerca
// de uno pero lejos del otro, el lejano no penaliza.
func (c Condition) BoundaryDistance(v float64) float64 {
	switch c.Kind {
	case KindAtLeast:
		return math.Abs(v - c.Low)
	case KindAtMost:
		return math.Abs(v - c.High)
	case KindRange:
		return math.Min(math.Abs(v-c.Low), math.Abs(v-c.High))
	default:
		return math.Inf(1)
	}
}

// Boundaries devuelve los valores de boundary de la condición, en orden.
func (c Condition) Boundaries() []float64 {
	switch c.Kind {
	case KindAtLeast:
		return []float64{c.Low}
	case KindAtMost:
		return []float64{c.High}
	case KindRange:
		return []float64{c.Low, c.High}
	default:
		return nil
	}
}

// String devuelve la condición en notación legible.
func (c Condition) String() string {
	switch c.Kind {
	case KindAtLeast:
		return fmt.Sprintf(">=%g°", c.Low)
	case KindAtMost:
		return fmt.Sprintf("<=%g°", c.High)
	case KindRange:
		return fmt.Sprintf("%g-%g°", c.Low, c.High)
	default:
		return "invalid"
	}
}
