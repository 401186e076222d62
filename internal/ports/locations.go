package ports

// Location describe una estación de settlement conocida: su identificador
// de estación, zona horaria y coordenadas para la API del proveedor.
type Location struct {
	// Name es el nombre canónico tal como aparece en los títulos de mercado,
	// p.ej. "Denver, CO".
	Name string
	// StationID es el identificador de la estación de observación (ICAO).
	StationID string
	// TickerCode es el fragmento de ticker que identifica la ciudad en los
	// mercados compactos sin location en el título, p.ej. "DEN".
	TickerCode string
	// Timezone es el nombre IANA de la zona local de la estación.
	Timezone string
	Latitude  float64
	Longitude float64
}

// LocationDirectory resuelve nombres de location a estaciones conocidas.
// Se inyecta en vez de vivir como tabla global: distintos despliegues
// cubren distintos conjuntos de ciudades.
type LocationDirectory interface {
	// Lookup devuelve la location por nombre canónico.
	Lookup(name string) (Location, bool)

	// All devuelve todas las locations conocidas, en orden estable.
	All() []Location
}
