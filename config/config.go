package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Model   ModelConfig   `yaml:"model"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el comportamiento del scanner.
type ScannerConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	Bankroll        float64 `yaml:"bankroll"`       // USD disponibles para sizing
	KellyFraction   float64 `yaml:"kelly_fraction"` // fracción del Kelly pleno (0.25 = quarter Kelly)
	MinEdge         float64 `yaml:"min_edge"`       // edge mínimo para reportar
	MinLiquidity    float64 `yaml:"min_liquidity"`  // USD mínimos en el pool, 0 = sin filtro
	HedgeBudget     float64 `yaml:"hedge_budget"`   // presupuesto por plan de cobertura
	MaxHedgeLegs    int     `yaml:"max_hedge_legs"`
	Workers         int     `yaml:"workers"` // 0 = 2×NumCPU
}

// ModelConfig son los parámetros del modelo de probabilidad por distancia.
type ModelConfig struct {
	SaturationDistance float64 `yaml:"saturation_distance"` // °F hasta saturar en max_probability
	UncertaintyBand    float64 `yaml:"uncertainty_band"`    // ±°F alrededor del boundary
	ConfidencePenalty  float64 `yaml:"confidence_penalty"`  // castigo de confidence dentro de la banda; negativo lo desactiva
	MaxProbability     float64 `yaml:"max_probability"`     // techo/suelo del modelo
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	KalshiBase     string `yaml:"kalshi_base"`
	NWSAPIBase     string `yaml:"nws_api_base"`
	NWSProductBase string `yaml:"nws_product_base"`
	NWSUserAgent   string `yaml:"nws_user_agent"` // NWS exige identificarse
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("KALSHI_API_BASE"); v != "" {
		cfg.API.KalshiBase = v
	}
	if v := os.Getenv("NWS_USER_AGENT"); v != "" {
		cfg.API.NWSUserAgent = v
	}
	if v := os.Getenv("CLIMABOT_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 900 // los forecasts NWS se actualizan cada hora
	}
	if cfg.Scanner.Bankroll <= 0 {
		cfg.Scanner.Bankroll = 1000
	}
	if cfg.Scanner.KellyFraction <= 0 {
		cfg.Scanner.KellyFraction = 0.25
	}
	if cfg.Scanner.MinEdge <= 0 {
		cfg.Scanner.MinEdge = 0.20
	}
	if cfg.Scanner.HedgeBudget <= 0 {
		cfg.Scanner.HedgeBudget = 100
	}
	if cfg.Scanner.MaxHedgeLegs <= 0 {
		cfg.Scanner.MaxHedgeLegs = 3
	}
	if cfg.Model.SaturationDistance <= 0 {
		cfg.Model.SaturationDistance = 5
	}
	if cfg.Model.UncertaintyBand <= 0 {
		cfg.Model.UncertaintyBand = 1
	}
	// Negativo pasa tal cual: significa "sin recorte" para el modelo.
	if cfg.Model.ConfidencePenalty == 0 {
		cfg.Model.ConfidencePenalty = 0.30
	}
	if cfg.Model.MaxProbability <= 0 {
		cfg.Model.MaxProbability = 0.95
	}
	if cfg.API.KalshiBase == "" {
		cfg.API.KalshiBase = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if cfg.API.NWSAPIBase == "" {
		cfg.API.NWSAPIBase = "https://api.weather.gov"
	}
	if cfg.API.NWSProductBase == "" {
		cfg.API.NWSProductBase = "https://forecast.weather.gov"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "climabot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
