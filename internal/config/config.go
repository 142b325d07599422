package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobflow-engine/internal/domain"
)

type Rule struct {
	Tag    string   `yaml:"tag" json:"tag"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

type Penalty struct {
	Reason string   `yaml:"reason" json:"reason"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

type Company struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

// Boards lists the companies an ATS source reads. For workday the slug is
// the full board URL.
type Boards struct {
	BaseURL   string    `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Companies []Company `yaml:"companies" json:"companies"`
}

const (
	SourceLLM        = "llm"
	SourceAdzuna     = "adzuna"
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
	SourceSmartRec   = "smartrecruiters"
	SourceWorkday    = "workday"

	ScoringLLM      = "llm"
	ScoringKeywords = "keywords"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Store struct {
		Driver      string `yaml:"driver" json:"driver"`             // sqlite | postgres
		DatabaseURL string `yaml:"database_url" json:"database_url"` // postgres only
	} `yaml:"store" json:"store"`

	Oracle struct {
		BaseURL           string  `yaml:"base_url" json:"base_url"`
		Model             string  `yaml:"model" json:"model"`
		DiscoveryModel    string  `yaml:"discovery_model" json:"discovery_model"`
		APIKeyEnv         string  `yaml:"api_key_env" json:"api_key_env"`
		TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
	} `yaml:"oracle" json:"oracle"`

	Discovery struct {
		Sources    []string `yaml:"sources" json:"sources"`
		MaxResults int      `yaml:"max_results" json:"max_results"`

		Adzuna struct {
			BaseURL string `yaml:"base_url" json:"base_url"`
			AppID   string `yaml:"app_id" json:"app_id"`
			AppKey  string `yaml:"app_key" json:"app_key"`
			Country string `yaml:"country" json:"country"`
		} `yaml:"adzuna" json:"adzuna"`

		Greenhouse      Boards `yaml:"greenhouse" json:"greenhouse"`
		Lever           Boards `yaml:"lever" json:"lever"`
		SmartRecruiters Boards `yaml:"smartrecruiters" json:"smartrecruiters"`
		Workday         Boards `yaml:"workday" json:"workday"`
	} `yaml:"discovery" json:"discovery"`

	Pipeline struct {
		LogCapacity   int    `yaml:"log_capacity" json:"log_capacity"`
		DefaultDomain string `yaml:"default_domain" json:"default_domain"`
	} `yaml:"pipeline" json:"pipeline"`

	Profile domain.Profile `yaml:"profile" json:"profile"`

	Scoring struct {
		Provider     string    `yaml:"provider" json:"provider"` // llm | keywords
		TitleRules   []Rule    `yaml:"title_rules" json:"title_rules"`
		KeywordRules []Rule    `yaml:"keyword_rules" json:"keyword_rules"`
		Penalties    []Penalty `yaml:"penalties" json:"penalties"`
		// Bands are the minimum raw keyword totals for scores 2,3,4,5.
		Bands []int `yaml:"bands" json:"bands"`
	} `yaml:"scoring" json:"scoring"`

	Events struct {
		RedisURL     string `yaml:"redis_url" json:"redis_url"`
		RedisChannel string `yaml:"redis_channel" json:"redis_channel"`
	} `yaml:"events" json:"events"`
}

// boards returns the company list behind an ATS source, or nil for sources
// that search on their own (llm, adzuna).
func (c *Config) boards(source string) *Boards {
	switch source {
	case SourceGreenhouse:
		return &c.Discovery.Greenhouse
	case SourceLever:
		return &c.Discovery.Lever
	case SourceSmartRec:
		return &c.Discovery.SmartRecruiters
	case SourceWorkday:
		return &c.Discovery.Workday
	}
	return nil
}

var boardSources = []string{SourceGreenhouse, SourceLever, SourceSmartRec, SourceWorkday}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills zero values so older config files keep working.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 38471
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverSQLite
	}
	if cfg.Oracle.APIKeyEnv == "" {
		cfg.Oracle.APIKeyEnv = "JOBFLOW_ORACLE_API_KEY"
	}
	if cfg.Oracle.TimeoutSeconds == 0 {
		cfg.Oracle.TimeoutSeconds = 60
	}
	if cfg.Oracle.RequestsPerSecond == 0 {
		cfg.Oracle.RequestsPerSecond = 1
	}
	if cfg.Oracle.Burst == 0 {
		cfg.Oracle.Burst = 1
	}
	if len(cfg.Discovery.Sources) == 0 {
		cfg.Discovery.Sources = []string{SourceLLM}
	}
	if cfg.Discovery.MaxResults == 0 {
		cfg.Discovery.MaxResults = 5
	}
	if cfg.Discovery.Adzuna.Country == "" {
		cfg.Discovery.Adzuna.Country = "us"
	}
	if cfg.Pipeline.LogCapacity == 0 {
		cfg.Pipeline.LogCapacity = 10
	}
	if cfg.Pipeline.DefaultDomain == "" {
		cfg.Pipeline.DefaultDomain = domain.DefaultDomain
	}
	if cfg.Scoring.Provider == "" {
		cfg.Scoring.Provider = ScoringLLM
	}
	if len(cfg.Scoring.Bands) == 0 {
		cfg.Scoring.Bands = []int{2, 4, 6, 9}
	}
	if cfg.Events.RedisChannel == "" {
		cfg.Events.RedisChannel = "jobflow:pipeline"
	}
}
