package weather

import (
	"strings"

	"github.com/alejandrodnm/climabot/internal/ports"
)

// Directory es la implementación en memoria de ports.LocationDirectory.
// La tabla por defecto cubre las ciudades con mercados de temperatura
// activos; despliegues con otra cobertura inyectan la suya.
type Directory struct {
	byName  map[string]ports.Location
	ordered []ports.Location
}

// NewDirectory crea un directorio con las locations dadas.
// Sin argumentos usa DefaultLocations.
func NewDirectory(locations ...ports.Location) *Directory {
	if len(locations) == 0 {
		locations = DefaultLocations()
	}
	d := &Directory{
		byName:  make(map[string]ports.Location, len(locations)),
		ordered: locations,
	}
	for _, loc := range locations {
		d.byName[strings.ToLower(loc.Name)] = loc
	}
	return d
}

// Lookup devuelve la location por nombre canónico, insensible a mayúsculas.
func (d *Directory) Lookup(name string) (ports.Location, bool) {
	loc, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	return loc, ok
}

// All devuelve todas las locations en orden de registro.
func (d *Directory) All() []ports.Location {
	return d.ordered
}

// DefaultLocations devuelve las estaciones de settlement conocidas.
func DefaultLocations() []ports.Location {
	return []ports.Location{
		{Name: "Denver, CO", StationID: "KDEN", TickerCode: "DEN", Timezone: "America/Denver", Latitude: 39.7392, Longitude: -104.9903},
		{Name: "Miami, FL", StationID: "KMIA", TickerCode: "MIA", Timezone: "America/New_York", Latitude: 25.7617, Longitude: -80.1918},
		{Name: "New York, NY", StationID: "KJFK", TickerCode: "NYC", Timezone: "America/New_York", Latitude: 40.7128, Longitude: -74.0060},
		{Name: "Los Angeles, CA", StationID: "KLAX", TickerCode: "LAX", Timezone: "America/Los_Angeles", Latitude: 34.0522, Longitude: -118.2437},
		{Name: "Chicago, IL", StationID: "KORD", TickerCode: "CHI", Timezone: "America/Chicago", Latitude: 41.8781, Longitude: -87.6298},
		{Name: "Houston, TX", StationID: "KIAH", TickerCode: "HOU", Timezone: "America/Chicago", Latitude: 29.7604, Longitude: -95.3698},
		{Name: "Phoenix, AZ", StationID: "KPHX", TickerCode: "PHX", Timezone: "America/Phoenix", Latitude: 33.4484, Longitude: -112.0740},
		{Name: "Philadelphia, PA", StationID: "KPHL", TickerCode: "PHL", Timezone: "America/New_York", Latitude: 39.9526, Longitude: -75.1652},
		{Name: "Austin, TX", StationID: "KAUS", TickerCode: "AUS", Timezone: "America/Chicago", Latitude: 30.2672, Longitude: -97.7431},
		{Name: "Seattle, WA", StationID: "KSEA", TickerCode: "SEA", Timezone: "America/Los_Angeles", Latitude: 47.6062, Longitude: -122.3321},
		{Name: "Boston, MA", StationID: "KBOS", TickerCode: "BOS", Timezone: "America/New_York", Latitude: 42.3601, Longitude: -71.0589},
		{Name: "Atlanta, GA", StationID: "KATL", TickerCode: "ATL", Timezone: "America/New_York", Latitude: 33.7490, Longitude: -84.3880},
	}
}
