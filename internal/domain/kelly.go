package domain

import "fmt"

// Kelly calcula la fracción óptima de banca para una apuesta binaria a un
// precio tipo probabilidad.
//
// Fórmula: k = (b·p − q) / b
//   - b: odds netas, 1/price − 1
//   - p: probabilidad estimada de ganar
//   - q: 1 − p
//
// El resultado se recorta a [0, 1]. Precio fuera de (0,1) → *ConfigurationError
// (odds indefinidas).
func Kelly(p, price float64) (float64, error) {
	if price <= 0 || price >= 1 {
		return 0, &ConfigurationError{Msg: fmt.Sprintf("price %g outside (0,1), odds undefined", price)}
	}
	b := 1/price - 1
	q := 1 - p
	k := (b*p - q) / b
	if k < 0 {
		k = 0
	}
	if k > 1 {
		k = 1
	}
	return k, nil
}

// FractionalKelly aplica el multiplicador de reducción de varianza sobre la
// fracción Kelly completa (0.25 = quarter-Kelly). El recorte a [0,1] ocurre
// antes de aplicar la fracción.
func FractionalKelly(p, price, fraction float64) (float64, error) {
	k, err := Kelly(p, price)
	if err != nil {
		return 0, err
	}
	return k * fraction, nil
}
