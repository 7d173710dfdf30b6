package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen string `yaml:"listen"`

	// AdminToken gates the scheme-update endpoint. The yaml value is for
	// local runs only; ADMIN_TOKEN from the environment wins.
	AdminToken string `yaml:"admin_token"`

	// Venues to poll; empty means every registered spot venue.
	Venues []string `yaml:"venues"`

	Collector struct {
		CallTimeoutMs  int `yaml:"call_timeout_ms"`
		RoundTimeoutMs int `yaml:"round_timeout_ms"`
		Workers        int `yaml:"workers"`
	} `yaml:"collector"`

	Rates struct {
		RubPerUSD float64 `yaml:"rub_per_usd"`
	} `yaml:"rates"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
		Active   string `yaml:"active_key"`
		SchemeNS string `yaml:"scheme_ns"`
	} `yaml:"redis"`

	Cron struct {
		Cryptos      []string `yaml:"cryptos"`
		MaxAgeHours  int      `yaml:"max_age_hours"`
		MinKeepPct   float64  `yaml:"min_keep_pct"`
		SchemesLimit int      `yaml:"schemes_limit"`
	} `yaml:"cron"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Collector.CallTimeoutMs == 0 {
		c.Collector.CallTimeoutMs = 3000
	}
	if c.Collector.RoundTimeoutMs == 0 {
		c.Collector.RoundTimeoutMs = 5000
	}
	if c.Collector.Workers == 0 {
		c.Collector.Workers = 8
	}
	if c.Rates.RubPerUSD == 0 {
		c.Rates.RubPerUSD = 95.0
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "scheme:stream"
	}
	if c.Redis.Active == "" {
		c.Redis.Active = "scheme:active"
	}
	if c.Redis.SchemeNS == "" {
		c.Redis.SchemeNS = "scheme:latest:"
	}
	if len(c.Cron.Cryptos) == 0 {
		c.Cron.Cryptos = []string{"BTC", "ETH", "USDT", "BNB", "SOL", "XRP", "ADA", "DOGE", "TRX", "MATIC"}
	}
	if c.Cron.MaxAgeHours == 0 {
		c.Cron.MaxAgeHours = 24
	}
	if c.Cron.MinKeepPct == 0 {
		c.Cron.MinKeepPct = 0.05
	}
	if c.Cron.SchemesLimit == 0 {
		c.Cron.SchemesLimit = 50
	}

	// Secrets and connection strings come from the environment when present.
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return &c, nil
}

func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Collector.CallTimeoutMs) * time.Millisecond
}
func (c *Config) RoundTimeout() time.Duration {
	return time.Duration(c.Collector.RoundTimeoutMs) * time.Millisecond
}
