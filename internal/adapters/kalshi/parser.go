package kalshi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/ports"
)

// Los títulos de mercado de temperatura aparecen en cinco variantes.
// Se prueban en orden; la primera que hace match gana.
var (
	// "Will the minimum temperature in Denver, CO be 31° or above on January 12, 2026?"
	patternSimple = regexp.MustCompile(
		`(?i)Will the (minimum|maximum|average) temperature in ([A-Za-z\s,]+?) be (\d+)°? or (above|below) on ([A-Za-z]+ \d+, \d{4})`)

	// "Will the minimum temperature in Miami, FL be between 65° and 70° on January 15, 2026?"
	patternRange = regexp.MustCompile(
		`(?i)Will the (minimum|maximum|average) temperature in ([A-Za-z\s,]+?) be between (\d+)°? and (\d+)°? on ([A-Za-z]+ \d+, \d{4})`)

	// "Will the minimum temperature in Denver, CO be at least 31° on January 12, 2026?"
	patternAtLeastMost = regexp.MustCompile(
		`(?i)Will the (minimum|maximum|average) temperature in ([A-Za-z\s,]+?) be at (least|most) (\d+)°? on ([A-Za-z]+ \d+, \d{4})`)

	// "Will the lowest temperature in Denver be 26° or below on January 16?" (sin año)
	patternLowestHighest = regexp.MustCompile(
		`(?i)Will the (lowest|highest|average) temperature in ([A-Za-z\s,]+?) be (\d+)°? or (below|above) on ([A-Za-z]+ \d+)\??$`)

	// "Will the minimum temperature be  >20° on Jan 17, 2026?" (compacto, sin location)
	patternCompact = regexp.MustCompile(
		`(?i)Will the (minimum|maximum|average) temperature be\s+([><])?(\d+)(?:-(\d+))?°?\s+on ([A-Za-z]+ \d+, \d{4})`)
)

// Parsed es el resultado estructurado de parsear un título de mercado.
type Parsed struct {
	Location  string
	Metric    domain.Metric
	Condition domain.Condition
	Date      time.Time
}

// Parser extrae la forma canónica de los títulos de mercado. Las locations
// se resuelven contra el directorio inyectado: un título con una ciudad
// desconocida no es parseable.
type Parser struct {
	locations ports.LocationDirectory
	now       func() time.Time
}

// NewParser crea un Parser sobre el directorio de locations dado.
func NewParser(locations ports.LocationDirectory) *Parser {
	return &Parser{locations: locations, now: time.Now}
}

// Parse extrae location, métrica, condición y fecha del título.
// Título no reconocido → *ParseError (el caller salta el mercado).
func (p *Parser) Parse(title, ticker string) (Parsed, error) {
	if m := patternSimple.FindStringSubmatch(title); m != nil {
		return p.parseThreshold(m[1], m[2], m[3], m[4], m[5])
	}
	if m := patternRange.FindStringSubmatch(title); m != nil {
		return p.parseRange(m[1], m[2], m[3], m[4], m[5])
	}
	if m := patternAtLeastMost.FindStringSubmatch(title); m != nil {
		op := "at least"
		if strings.EqualFold(m[3], "most") {
			op = "at most"
		}
		return p.parseThresholdOp(m[1], m[2], m[4], op, m[5], "January 2, 2006")
	}
	if m := patternLowestHighest.FindStringSubmatch(title); m != nil {
		return p.parseLowestHighest(m[1], m[2], m[3], m[4], m[5])
	}
	if m := patternCompact.FindStringSubmatch(title); m != nil {
		return p.parseCompact(ticker, m[1], m[2], m[3], m[4], m[5])
	}
	return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("unrecognized market title %q", title)}
}

// parseThreshold maneja la variante "X° or above/below".
func (p *Parser) parseThreshold(metric, location, value, direction, date string) (Parsed, error) {
	op := "or above"
	if strings.EqualFold(direction, "below") {
		op = "or below"
	}
	return p.parseThresholdOp(metric, location, value, op, date, "January 2, 2006")
}

func (p *Parser) parseThresholdOp(metric, location, value, op, date, layout string) (Parsed, error) {
	met, err := parseMetric(metric)
	if err != nil {
		return Parsed{}, err
	}
	loc, err := p.canonicalLocation(location)
	if err != nil {
		return Parsed{}, err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("threshold %q: %v", value, err)}
	}
	cond, err := domain.Normalize(op, v)
	if err != nil {
		return Parsed{}, err
	}
	d, err := time.Parse(layout, date)
	if err != nil {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("date %q: %v", date, err)}
	}
	return Parsed{Location: loc, Metric: met, Condition: cond, Date: d}, nil
}

// parseRange maneja la variante "between X° and Y°".
func (p *Parser) parseRange(metric, location, low, high, date string) (Parsed, error) {
	met, err := parseMetric(metric)
	if err != nil {
		return Parsed{}, err
	}
	loc, err := p.canonicalLocation(location)
	if err != nil {
		return Parsed{}, err
	}
	lo, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("range low %q: %v", low, err)}
	}
	hi, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("range high %q: %v", high, err)}
	}
	cond, err := domain.NormalizeRange(lo, hi)
	if err != nil {
		return Parsed{}, err
	}
	d, err := time.Parse("January 2, 2006", date)
	if err != nil {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("date %q: %v", date, err)}
	}
	return Parsed{Location: loc, Metric: met, Condition: cond, Date: d}, nil
}

// parseLowestHighest maneja la variante "lowest/highest" sin año en la fecha.
func (p *Parser) parseLowestHighest(metric, location, value, direction, date string) (Parsed, error) {
	op := "or above"
	if strings.EqualFold(direction, "below") {
		op = "or below"
	}

	// Sin año: probar el actual y, si la fecha no existe (29 de febrero), el siguiente.
	year := p.now().Year()
	dated := fmt.Sprintf("%s, %d", date, year)
	if _, err := time.Parse("January 2, 2006", dated); err != nil {
		dated = fmt.Sprintf("%s, %d", date, year+1)
	}
	return p.parseThresholdOp(metricWord(metric), location, value, op, dated, "January 2, 2006")
}

// parseCompact maneja la variante compacta sin location: ">20°", "<13°", "19-20°".
// La location se infiere del fragmento de ticker de la ciudad.
func (p *Parser) parseCompact(ticker, metric, symbol, low, high, date string) (Parsed, error) {
	loc, ok := p.locationFromTicker(ticker)
	if !ok {
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("cannot infer location from ticker %q", ticker)}
	}

	if high != "" {
		return p.parseRange(metric, loc, low, high, date)
	}

	var op string
	switch symbol {
	case ">":
		op = ">"
	case "<":
		op = "<"
	default:
		return Parsed{}, &domain.ParseError{Msg: fmt.Sprintf("ambiguous comparison in compact title for %q", ticker)}
	}
	return p.parseThresholdOp(metric, loc, low, op, date, "Jan 2, 2006")
}

// canonicalLocation resuelve un nombre de location contra el directorio.
// Nombres sin estado ("Denver") se expanden a su forma canónica.
func (p *Parser) canonicalLocation(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if loc, ok := p.locations.Lookup(name); ok {
		return loc.Name, nil
	}
	if !strings.Contains(name, ",") {
		for _, loc := range p.locations.All() {
			city, _, _ := strings.Cut(loc.Name, ",")
			if strings.EqualFold(city, name) {
				return loc.Name, nil
			}
		}
	}
	return "", &domain.ParseError{Msg: fmt.Sprintf("unknown location %q", name)}
}

// locationFromTicker busca el fragmento de ciudad del ticker en el directorio.
func (p *Parser) locationFromTicker(ticker string) (string, bool) {
	upper := strings.ToUpper(ticker)
	for _, loc := range p.locations.All() {
		if loc.TickerCode != "" && strings.Contains(upper, loc.TickerCode) {
			return loc.Name, true
		}
	}
	return "", false
}

// parseMetric convierte la palabra de métrica del título al enum del dominio.
func parseMetric(word string) (domain.Metric, error) {
	switch strings.ToLower(word) {
	case "minimum", "lowest":
		return domain.MetricMin, nil
	case "maximum", "highest":
		return domain.MetricMax, nil
	case "average":
		return domain.MetricAvg, nil
	default:
		return 0, &domain.ParseError{Msg: fmt.Sprintf("unknown metric %q", word)}
	}
}

// metricWord traduce lowest/highest a la forma estándar del resto de patrones.
func metricWord(word string) string {
	switch strings.ToLower(word) {
	case "lowest":
		return "minimum"
	case "highest":
		return "maximum"
	default:
		return word
	}
}
