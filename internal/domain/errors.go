package domain

// Taxonomía de errores del engine. Un error en un mercado o grupo nunca
// aborta el batch completo: el scanner los registra y sigue con el resto.

// ParseError indica una expresión de condición no reconocida o malformada
// (operador desconocido, bucket invertido). Nunca se corrige en silencio.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// ConfigurationError indica un input de precio/odds inválido
// (precio fuera de (0,1) → odds indefinidas).
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// InsufficientDataError indica que no hay observación ni forecast disponible.
// Es un estado esperado, no excepcional: el modelo devuelve el estimate
// "too early" en vez de fallar, pero los adapters lo usan para señalar
// datos faltantes aguas arriba.
type InsufficientDataError struct {
	Msg string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Msg
}
