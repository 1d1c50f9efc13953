package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"albion-flipper/internal/engine"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// CitiesConfig selects the markets to compare.
type CitiesConfig struct {
	Sources      []string `yaml:"sources" default:"[\"Martlock\",\"Lymhurst\",\"Bridgewatch\",\"Fort Sterling\",\"Thetford\",\"Caerleon\"]" validate:"min=1,dive,required"`
	Destinations []string `yaml:"destinations" default:"[\"Martlock\",\"Lymhurst\",\"Bridgewatch\",\"Fort Sterling\",\"Thetford\",\"Caerleon\",\"Black Market\"]" validate:"min=1,dive,required"`
	HighDanger   []string `yaml:"high_danger" default:"[\"Caerleon\"]" validate:"dive,required"`
}

// FlipsConfig holds the flip search filters.
type FlipsConfig struct {
	MinProfitMargin      float64       `yaml:"min_profit_margin" default:"5" validate:"gte=0"`
	MaxInvestment        float64       `yaml:"max_investment" default:"1000000" validate:"gt=0"`
	RiskTolerance        string        `yaml:"risk_tolerance" default:"medium" validate:"oneof=low medium high"`
	TierMin              int           `yaml:"tier_min" default:"4" validate:"gte=1,lte=8"`
	TierMax              int           `yaml:"tier_max" default:"8" validate:"gtefield=TierMin,lte=8"`
	Qualities            []int         `yaml:"qualities" default:"[1,2,3]" validate:"min=1,dive,gte=1,lte=5"`
	MaxDataAge           time.Duration `yaml:"max_data_age" default:"6h" validate:"gt=0"`
	MaxResults           int           `yaml:"max_results" default:"50" validate:"gte=0"`
	Strategies           []string      `yaml:"strategies" default:"[\"fast\",\"patient\"]" validate:"min=1,dive,oneof=fast patient"`
	MaxSuggestedQuantity int           `yaml:"max_suggested_quantity" default:"100" validate:"gte=0"`
	Workers              int           `yaml:"workers" validate:"gte=0"`
	MinLiquidity         float64       `yaml:"min_liquidity" validate:"gte=0,lte=1"`
}

// CraftingConfig holds the crafting planner settings.
type CraftingConfig struct {
	City               string  `yaml:"city" default:"Martlock" validate:"required"`
	UseFocus           bool    `yaml:"use_focus"`
	ResourceReturnRate float64 `yaml:"resource_return_rate" default:"0.15" validate:"gte=0,lt=1"`
	FocusReturnRate    float64 `yaml:"focus_return_rate" default:"0.35" validate:"gte=0,lt=1"`
	FocusPointValue    float64 `yaml:"focus_point_value" validate:"gte=0"`
}

// FeesConfig holds market and station fee rates as fractions.
type FeesConfig struct {
	TaxRateBasic   float64 `yaml:"tax_rate_basic" default:"0.08" validate:"gte=0,lt=1"`
	TaxRatePremium float64 `yaml:"tax_rate_premium" default:"0.04" validate:"gte=0,lt=1"`
	SetupFeeRate   float64 `yaml:"setup_fee_rate" default:"0.025" validate:"gte=0,lt=1"`
	StationFeeRate float64 `yaml:"station_fee_rate" default:"0.05" validate:"gte=0,lt=1"`
}

// FetchConfig tunes the price source client and local retention.
type FetchConfig struct {
	ChunkSize         int           `yaml:"chunk_size" default:"40" validate:"gte=1,lte=200"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"3" validate:"gt=0"`
	CacheTTL          time.Duration `yaml:"cache_ttl" default:"5m" validate:"gte=0"`
	BreakerFailures   uint32        `yaml:"breaker_failures" default:"5" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
	Retention         time.Duration `yaml:"retention" default:"168h" validate:"gt=0"`
	HistoryWindow     time.Duration `yaml:"history_window" default:"168h" validate:"gt=0"`
}

// LoggingConfig controls console output.
type LoggingConfig struct {
	Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	NoColor bool   `yaml:"no_color"`
}

// Config holds application settings.
type Config struct {
	Server      string `yaml:"server" default:"europe" validate:"oneof=west east europe"`
	Premium     bool   `yaml:"premium" default:"true"`
	Database    string `yaml:"database"`      // empty = albion-flipper.db next to the executable
	RecipesFile string `yaml:"recipes_file"`  // empty = built-in catalog
	ZoneMapFile string `yaml:"zone_map_file"` // empty = built-in royal continent map

	Cities   CitiesConfig   `yaml:"cities"`
	Flips    FlipsConfig    `yaml:"flips"`
	Crafting CraftingConfig `yaml:"crafting"`
	Fees     FeesConfig     `yaml:"fees"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Load reads a YAML config over the defaults, applies environment overrides
// and validates the result. An empty path yields the validated defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ALBION_SERVER"); v != "" {
		c.Server = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ALBION_DB"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("ALBION_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate checks struct-tag constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// AllCities returns every source and destination city once, in config order.
func (c *Config) AllCities() []engine.City {
	seen := make(map[string]bool)
	var out []engine.City
	for _, list := range [][]string{c.Cities.Sources, c.Cities.Destinations} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, engine.City(name))
			}
		}
	}
	return out
}

// Qualities returns the configured quality filter.
func (c *Config) Qualities() []engine.Quality {
	out := make([]engine.Quality, len(c.Flips.Qualities))
	for i, q := range c.Flips.Qualities {
		out[i] = engine.Quality(q)
	}
	return out
}

// DangerCities returns the always-high-risk cities.
func (c *Config) DangerCities() []engine.City {
	return toCities(c.Cities.HighDanger)
}

// Params builds the per-call engine parameters.
func (c *Config) Params() (engine.Params, error) {
	risk, err := engine.ParseRiskLevel(c.Flips.RiskTolerance)
	if err != nil {
		return engine.Params{}, err
	}
	strategies := make([]engine.FlipStrategy, len(c.Flips.Strategies))
	for i, s := range c.Flips.Strategies {
		strategies[i] = engine.FlipStrategy(s)
	}
	return engine.Params{
		MinProfitMargin:   c.Flips.MinProfitMargin,
		MaxInvestment:     c.Flips.MaxInvestment,
		RiskTolerance:     risk,
		SourceCities:      toCities(c.Cities.Sources),
		DestCities:        toCities(c.Cities.Destinations),
		TierRange:         engine.TierRange{Min: c.Flips.TierMin, Max: c.Flips.TierMax},
		Qualities:         c.Qualities(),
		Premium:           c.Premium,
		UseFocus:          c.Crafting.UseFocus,
		MaxDataAgeSeconds: c.Flips.MaxDataAge.Seconds(),
		MaxResults:        c.Flips.MaxResults,
		Fees: engine.FeeTable{
			TaxRateBasic:   c.Fees.TaxRateBasic,
			TaxRatePremium: c.Fees.TaxRatePremium,
			SetupFeeRate:   c.Fees.SetupFeeRate,
			StationFeeRate: c.Fees.StationFeeRate,
		},
		Strategies:           strategies,
		MaxSuggestedQuantity: c.Flips.MaxSuggestedQuantity,
		FocusReturnRate:      c.Crafting.FocusReturnRate,
		FocusPointValue:      c.Crafting.FocusPointValue,
		Workers:              c.Flips.Workers,
		MinLiquidity:         c.Flips.MinLiquidity,
	}, nil
}

func toCities(names []string) []engine.City {
	out := make([]engine.City, len(names))
	for i, n := range names {
		out[i] = engine.City(n)
	}
	return out
}
