package aislookup

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/credstore"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/scrape"
)

type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

// FeedConfig configures the live AIS feed path.
type FeedConfig struct {
	EndpointURL     string `yaml:"endpointURL" validate:"omitempty,url"`
	CredentialFile  string `yaml:"credentialFile"`
	LookupTimeoutMS int    `yaml:"lookupTimeoutMS" validate:"gte=0"`
}

// ScrapeConfig configures the fallback scraper. TargetURL and each proxy
// entry are printf templates taking one %s.
type ScrapeConfig struct {
	TargetURL string   `yaml:"targetURL"`
	Proxies   []string `yaml:"proxies"`
	UserAgent string   `yaml:"userAgent"`
	TimeoutMS int      `yaml:"timeoutMS" validate:"gte=0"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttlSeconds" validate:"gte=0"`
}

type AppConfig struct {
	Server ServerConfig `yaml:"server" validate:"required"`
	Feed   FeedConfig   `yaml:"feed"`
	Scrape ScrapeConfig `yaml:"scrape"`
	Cache  CacheConfig  `yaml:"cache"`
}

// Config is the global application configuration
var Config AppConfig

var configPaths = []string{"config.yml", "./config/config.yml"}

// LoadAppConfig loads and validates the application configuration from
// config.yml. A missing file is not fatal: every setting has a built-in
// default, so the service runs unconfigured (fallback-only until a
// credential is set).
func LoadAppConfig() error {
	var data []byte
	var err error
	for _, p := range configPaths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Debug().Msg("no config file found, using built-in defaults")
		Config = AppConfig{}
		applyConfigDefaults(&Config)
		return nil
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return err
	}
	if err := v.Struct(cfg.Feed); err != nil {
		return err
	}
	if err := v.Struct(cfg.Scrape); err != nil {
		return err
	}
	Config = cfg
	applyConfigDefaults(&Config)
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16182
	}
	if cfg.Feed.EndpointURL == "" {
		cfg.Feed.EndpointURL = ais.DefaultEndpoint
	}
	if cfg.Feed.CredentialFile == "" {
		cfg.Feed.CredentialFile = credstore.DefaultPath
	}
	if cfg.Feed.LookupTimeoutMS == 0 {
		cfg.Feed.LookupTimeoutMS = int(ais.DefaultLookupTimeout.Milliseconds())
	}
	if cfg.Scrape.TargetURL == "" {
		cfg.Scrape.TargetURL = scrape.DefaultTargetURL
	}
	if len(cfg.Scrape.Proxies) == 0 {
		cfg.Scrape.Proxies = append([]string(nil), scrape.DefaultProxies...)
	}
	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = scrape.DefaultUserAgent
	}
	if cfg.Scrape.TimeoutMS == 0 {
		cfg.Scrape.TimeoutMS = int(scrape.DefaultTimeout.Milliseconds())
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 60
	}
}
