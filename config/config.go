package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

// Config holds everything the engine and dashboard need for one run.
type Config struct {
	MongoURI        string
	Database        string
	Pair            domain.Pair
	FeedBaseURL     string
	HistoryLimit    int
	RefreshInterval time.Duration
	IdleInterval    time.Duration
	Timezone        *time.Location
	GateEnabled     bool
	ReloadRecords   bool
	DashboardAddr   string
	TLSDomains      []string
	TLSCacheDir     string
}

type configTmp struct {
	MongoURI        string        `yaml:"mongo_uri,omitempty"`
	Database        string        `yaml:"database,omitempty"`
	Pair            string        `yaml:"pair,omitempty"`
	FeedBaseURL     string        `yaml:"feed_base_url,omitempty"`
	HistoryLimit    int           `yaml:"history_limit,omitempty"`
	RefreshInterval string        `yaml:"refresh_interval,omitempty"`
	IdleInterval    string        `yaml:"idle_interval,omitempty"`
	Timezone        string        `yaml:"timezone,omitempty"`
	GateEnabled     *bool         `yaml:"gate_enabled,omitempty"`
	ReloadRecords   bool          `yaml:"reload_records,omitempty"`
	DashboardAddr   string        `yaml:"dashboard_addr,omitempty"`
	TLSDomains      []string      `yaml:"tls_domains,omitempty"`
	TLSCacheDir     string        `yaml:"tls_cache_dir,omitempty"`
}

// Get loads configuration from the --config YAML file when given,
// otherwise from CLI flags. A .env file is read first so MONGO_URI can
// stay out of the YAML; the environment always wins for the store URI.
func Get() (Config, error) {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "USD_BRL", "currency pair, example: USD_BRL")
	refresh := flag.Duration("refreshinterval", time.Minute, "interval between refresh cycles")
	idle := flag.Duration("idleinterval", time.Minute, "re-check interval while outside business hours")
	gate := flag.Bool("gate", true, "pause refreshes outside business hours")
	reload := flag.Bool("reloadrecords", false, "re-query the record collections every cycle")
	addr := flag.String("addr", ":8080", "dashboard listen address")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := pairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}

	cfg := Config{
		Pair:            pair,
		RefreshInterval: *refresh,
		IdleInterval:    *idle,
		GateEnabled:     *gate,
		ReloadRecords:   *reload,
		DashboardAddr:   *addr,
	}
	return finish(cfg, "")
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(f)
}

// Parse builds a Config from raw YAML, applying defaults for anything the
// file leaves out.
func Parse(raw []byte) (Config, error) {
	var tmp configTmp
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return Config{}, err
	}

	cfg := Config{
		MongoURI:      tmp.MongoURI,
		Database:      tmp.Database,
		FeedBaseURL:   tmp.FeedBaseURL,
		HistoryLimit:  tmp.HistoryLimit,
		ReloadRecords: tmp.ReloadRecords,
		DashboardAddr: tmp.DashboardAddr,
		TLSDomains:    tmp.TLSDomains,
		TLSCacheDir:   tmp.TLSCacheDir,
		GateEnabled:   true,
	}
	if tmp.GateEnabled != nil {
		cfg.GateEnabled = *tmp.GateEnabled
	}

	// durations travel as strings in the yaml, like "30s" or "2m"
	if tmp.RefreshInterval != "" {
		d, err := time.ParseDuration(tmp.RefreshInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'refresh_interval' param in yaml config: %s, error: %w", tmp.RefreshInterval, err)
		}
		cfg.RefreshInterval = d
	}
	if tmp.IdleInterval != "" {
		d, err := time.ParseDuration(tmp.IdleInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'idle_interval' param in yaml config: %s, error: %w", tmp.IdleInterval, err)
		}
		cfg.IdleInterval = d
	}

	if tmp.Pair != "" {
		pair, err := pairFromString(tmp.Pair)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
		}
		cfg.Pair = pair
	}

	return finish(cfg, tmp.Timezone)
}

func finish(cfg Config, tzName string) (Config, error) {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		cfg.MongoURI = uri
	}
	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is not set (environment, .env or yaml)")
	}

	if cfg.Database == "" {
		cfg.Database = "Zoho"
	}
	if cfg.Pair == (domain.Pair{}) {
		cfg.Pair = domain.Pair{From: "USD", To: "BRL"}
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = time.Minute
	}
	if cfg.DashboardAddr == "" {
		cfg.DashboardAddr = ":8080"
	}

	if tzName == "" {
		tzName = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'timezone' param in yaml config: %s, error: %w", tzName, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

func pairFromString(pairStr string) (domain.Pair, error) {
	parts := strings.Split(pairStr, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.Pair{}, fmt.Errorf("invalid pair param")
	}
	return domain.Pair{From: parts[0], To: parts[1]}, nil
}
