package weather

// nws.go — cliente HTTP del National Weather Service.
//
// Tres fuentes: forecast horario por gridpoint (api.weather.gov), las
// observaciones de la estación ASOS, y el preliminary climate report (CLI)
// publicado como texto en forecast.weather.gov.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/climabot/internal/ports"
)

const (
	defaultAPIBase     = "https://api.weather.gov"
	defaultProductBase = "https://forecast.weather.gov"
	defaultUserAgent   = "climabot/1.0 (weather markets scanner)"

	// NWS pide moderación; sin límite documentado, 5 req/s es seguro.
	nwsRequestsPerSec = 5

	nwsMaxRetries    = 3
	nwsBaseRetryWait = 500 * time.Millisecond
)

// NWS es el cliente del National Weather Service. El User-Agent es
// obligatorio: NWS rechaza requests sin identificación.
type NWS struct {
	http        *http.Client
	apiBase     string
	productBase string
	userAgent   string
	limiter     *rate.Limiter

	// Los gridpoints no cambian: se cachean por coordenadas para
	// ahorrar un request por ciclo y location.
	mu        sync.Mutex
	gridCache map[string]string // "lat,lon" → forecastHourly URL
}

// NewNWS crea un cliente NWS. Bases o user agent vacíos usan los defaults.
func NewNWS(apiBase, productBase, userAgent string) *NWS {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if productBase == "" {
		productBase = defaultProductBase
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &NWS{
		http:        &http.Client{Timeout: 30 * time.Second},
		apiBase:     apiBase,
		productBase: productBase,
		userAgent:   userAgent,
		limiter:     rate.NewLimiter(nwsRequestsPerSec, 5),
		gridCache:   make(map[string]string),
	}
}

// --- DTOs ---

type pointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type hourlyResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

// forecastPeriod es una hora del forecast por gridpoint.
type forecastPeriod struct {
	StartTime       string  `json:"startTime"`
	Temperature     float64 `json:"temperature"`
	TemperatureUnit string  `json:"temperatureUnit"`
}

type observationsResponse struct {
	Features []struct {
		Properties struct {
			Timestamp   string `json:"timestamp"`
			Temperature struct {
				Value    *float64 `json:"value"`
				UnitCode string   `json:"unitCode"`
			} `json:"temperature"`
		} `json:"properties"`
	} `json:"features"`
}

// observation es una lectura de temperatura de la estación, ya en °F.
type observation struct {
	Time        time.Time
	Temperature float64
}

// preliminaryReport son los extremos del preliminary climate report (CLI).
type preliminaryReport struct {
	Min, Max       float64
	HasMin, HasMax bool
}

// --- endpoints ---

// HourlyForecast devuelve el forecast horario de la location. El gridpoint
// se resuelve y cachea en la primera llamada.
func (n *NWS) HourlyForecast(ctx context.Context, loc ports.Location) ([]forecastPeriod, error) {
	hourlyURL, err := n.forecastURL(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}

	var resp hourlyResponse
	if err := n.getJSON(ctx, hourlyURL, &resp); err != nil {
		return nil, fmt.Errorf("nws.HourlyForecast %s: %w", loc.Name, err)
	}
	return resp.Properties.Periods, nil
}

// forecastURL resuelve lat/lon al URL del forecast horario, con caché.
func (n *NWS) forecastURL(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)

	n.mu.Lock()
	cached, ok := n.gridCache[key]
	n.mu.Unlock()
	if ok {
		return cached, nil
	}

	var resp pointsResponse
	u := fmt.Sprintf("%s/points/%.4f,%.4f", n.apiBase, lat, lon)
	if err := n.getJSON(ctx, u, &resp); err != nil {
		return "", fmt.Errorf("nws.forecastURL: %w", err)
	}
	if resp.Properties.ForecastHourly == "" {
		return "", fmt.Errorf("nws.forecastURL: no hourly forecast for %s", key)
	}

	n.mu.Lock()
	n.gridCache[key] = resp.Properties.ForecastHourly
	n.mu.Unlock()

	slog.Debug("gridpoint resolved", "coords", key)
	return resp.Properties.ForecastHourly, nil
}

// Observations devuelve las lecturas de la estación en el rango dado,
// convertidas a °F. Las lecturas sin temperatura se saltan.
func (n *NWS) Observations(ctx context.Context, stationID string, start, end time.Time) ([]observation, error) {
	u := fmt.Sprintf("%s/stations/%s/observations?start=%s&end=%s",
		n.apiBase, url.PathEscape(stationID),
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)),
	)

	var resp observationsResponse
	if err := n.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("nws.Observations %s: %w", stationID, err)
	}

	obs := make([]observation, 0, len(resp.Features))
	for _, f := range resp.Features {
		props := f.Properties
		if props.Temperature.Value == nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, props.Timestamp)
		if err != nil {
			continue
		}
		temp := *props.Temperature.Value
		if strings.Contains(props.Temperature.UnitCode, "degC") {
			temp = temp*9/5 + 32
		}
		obs = append(obs, observation{Time: ts, Temperature: temp})
	}
	return obs, nil
}

// El CLI publica los extremos como "MAXIMUM   92   3:04 PM".
var (
	preTagPattern = regexp.MustCompile(`(?s)<pre[^>]*>(.*?)</pre>`)
	cliMinPattern = regexp.MustCompile(`MINIMUM\s+(\d+)`)
	cliMaxPattern = regexp.MustCompile(`MAXIMUM\s+(\d+)`)
)

// issuedByCode deriva el identificador de producto CLI del ID de estación:
// el código de 3 letras sin el prefijo de red CONUS ("KDEN" → "DEN"). Solo
// el primer carácter es prefijo: en "KPHX" la P pertenece al código.
func issuedByCode(stationID string) string {
	return strings.TrimPrefix(stationID, "K")
}

// PreliminaryClimateReport obtiene y parsea el preliminary climate report
// (producto CLI) de la estación. Reporte no publicado todavía → ok=false.
func (n *NWS) PreliminaryClimateReport(ctx context.Context, stationID string) (preliminaryReport, bool, error) {
	issuedBy := issuedByCode(stationID)

	u := fmt.Sprintf("%s/product.php?site=NWS&product=CLI&issuedby=%s", n.productBase, url.QueryEscape(issuedBy))
	html, err := n.getText(ctx, u)
	if err != nil {
		return preliminaryReport{}, false, fmt.Errorf("nws.PreliminaryClimateReport %s: %w", stationID, err)
	}

	pre := preTagPattern.FindStringSubmatch(html)
	text := html
	if pre != nil {
		text = pre[1]
	}

	var report preliminaryReport
	if m := cliMinPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			report.Min, report.HasMin = v, true
		}
	}
	if m := cliMaxPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			report.Max, report.HasMax = v, true
		}
	}

	return report, report.HasMin || report.HasMax, nil
}

// --- HTTP plumbing ---

// getJSON hace un GET con rate limiting y retries y decodifica JSON.
func (n *NWS) getJSON(ctx context.Context, u string, out any) error {
	body, err := n.getBody(ctx, u, "application/geo+json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getText hace un GET y devuelve el cuerpo crudo (el CLI es HTML).
func (n *NWS) getText(ctx context.Context, u string) (string, error) {
	body, err := n.getBody(ctx, u, "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (n *NWS) getBody(ctx context.Context, u, accept string) ([]byte, error) {
	for attempt := 0; attempt <= nwsMaxRetries; attempt++ {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", n.userAgent)
		req.Header.Set("Accept", accept)

		resp, err := n.http.Do(req)
		if err != nil {
			if attempt == nwsMaxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", nwsMaxRetries, err)
			}
			n.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == nwsMaxRetries {
				return nil, fmt.Errorf("status %d after %d retries", resp.StatusCode, nwsMaxRetries)
			}
			slog.Warn("nws request retry", "status", resp.StatusCode, "attempt", attempt+1)
			n.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("exhausted %d retries", nwsMaxRetries)
}

func (n *NWS) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * nwsBaseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
