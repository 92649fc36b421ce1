package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
)

// Config es la configuración completa del backtester.
type Config struct {
	Backtest   BacktestConfig  `yaml:"backtest"`
	Strategies strategy.Params `yaml:"strategies"`
	Data       DataConfig      `yaml:"data"`
	Storage    StorageConfig   `yaml:"storage"`
	Log        LogConfig       `yaml:"log"`
}

// BacktestConfig controla qué se compara y con cuánto capital.
type BacktestConfig struct {
	Symbol         string   `yaml:"symbol"`
	Days           int      `yaml:"days"`
	InitialCapital float64  `yaml:"initial_capital"`
	Workers        int      `yaml:"workers"`    // 0/1 = secuencial
	Strategies     []string `yaml:"strategies"` // vacío = todas
}

// DataConfig elige la fuente de precios.
type DataConfig struct {
	Source            string `yaml:"source"` // finnhub | csv | parquet
	FinnhubBase       string `yaml:"finnhub_base"`
	APIKey            string `yaml:"api_key"`
	CSVPath           string `yaml:"csv_path"`
	CacheDir          string `yaml:"cache_dir"` // vacío = sin cache parquet
	CacheMaxAgeHours  int    `yaml:"cache_max_age_hours"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o vacío para no persistir
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Fuentes de precios soportadas.
const (
	SourceFinnhub = "finnhub"
	SourceCSV     = "csv"
	SourceParquet = "parquet"
)

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío usa solo defaults y variables de entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate rechaza combinaciones que no pueden ejecutarse.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFinnhub, SourceParquet:
	case SourceCSV:
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.source=csv requires data.csv_path")
		}
	default:
		return fmt.Errorf("unknown data.source %q (finnhub|csv|parquet)", c.Data.Source)
	}
	if c.Data.Source == SourceParquet && c.Data.CacheDir == "" {
		return fmt.Errorf("data.source=parquet requires data.cache_dir")
	}
	if c.Backtest.InitialCapital < 0 {
		return fmt.Errorf("backtest.initial_capital must be > 0, got %v", c.Backtest.InitialCapital)
	}
	return c.Strategies.Validate()
}

// CacheMaxAge devuelve la antigüedad máxima del cache como time.Duration.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Data.CacheMaxAgeHours) * time.Hour
}

// StrategyParams devuelve los parámetros de estrategia efectivos.
func (c *Config) StrategyParams() strategy.Params {
	return c.Strategies
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Data.APIKey = v
	}
	if v := os.Getenv("STRATBENCH_SYMBOL"); v != "" {
		cfg.Backtest.Symbol = v
	}
	if v := os.Getenv("STRATBENCH_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.Days = n
		}
	}
	if v := os.Getenv("STRATBENCH_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Los parámetros de estrategia en cero los resuelve cada constructor.
func setDefaults(cfg *Config) {
	if cfg.Backtest.Symbol == "" {
		cfg.Backtest.Symbol = "BTC-USD"
	}
	if cfg.Backtest.Days <= 0 {
		cfg.Backtest.Days = 1825 // 5 años
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100_000
	}
	cfg.Data.Source = strings.ToLower(strings.TrimSpace(cfg.Data.Source))
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceFinnhub
	}
	if cfg.Data.FinnhubBase == "" {
		cfg.Data.FinnhubBase = "https://finnhub.io/api/v1"
	}
	if cfg.Data.RequestsPerMinute <= 0 {
		cfg.Data.RequestsPerMinute = 60 // free tier
	}
	if cfg.Data.CacheMaxAgeHours <= 0 {
		cfg.Data.CacheMaxAgeHours = 72
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
