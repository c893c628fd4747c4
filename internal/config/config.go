package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitClass stores the window/quota parameters for one operation class.
type RateLimitClass struct {
	WindowMs    int    `yaml:"window_ms"`
	MaxRequests int    `yaml:"max_requests"`
	KeyPrefix   string `yaml:"key_prefix"`
	FailPolicy  string `yaml:"fail_policy"` // "open" or "closed"
}

// Window returns the class window as a duration.
func (c RateLimitClass) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

// RateLimitConfig aggregates the per-class presets and the fallback behaviour.
type RateLimitConfig struct {
	Disabled         bool           `yaml:"disabled"`
	FallbackDisabled bool           `yaml:"fallback_disabled"`
	MaxMemoryEntries int            `yaml:"max_memory_entries"`
	Auth             RateLimitClass `yaml:"auth"`
	API              RateLimitClass `yaml:"api"`
	Payment          RateLimitClass `yaml:"payment"`
	Cart             RateLimitClass `yaml:"cart"`
	Web              RateLimitClass `yaml:"web"`
}

// MercadoPagoConfig holds credentials and endpoints for the payment provider.
type MercadoPagoConfig struct {
	AccessToken   string `yaml:"access_token"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
	// PublicURL is our externally reachable base URL, used to build the
	// notification and back URLs handed to the provider.
	PublicURL string `yaml:"public_url"`
}

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
	} `yaml:"kafka"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	ClickHouse struct {
		Addr     string `yaml:"addr"`
		Database string `yaml:"database"`
	} `yaml:"clickhouse"`
	Jaeger struct {
		Port     string `yaml:"port"`
		PortGrpc string `yaml:"port_grpc"`
	} `yaml:"jaeger"`
	Auth struct {
		Mode string `yaml:"mode"` // "jwt" or "oidc"
	} `yaml:"auth"`
	OIDC struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"oidc"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	OAuth struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"oauth"`
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Webhook     struct {
		MaxAgeMinutes int `yaml:"max_age_minutes"`
	} `yaml:"webhook"`
}

func Load(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Substitute environment variables into the raw YAML before parsing.
	expandedFile := os.ExpandEnv(string(file))

	if err := yaml.Unmarshal([]byte(expandedFile), config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()

	return config, nil
}

// applyDefaults fills in the documented defaults for anything the file left out.
func (c *Config) applyDefaults() {
	if c.Webhook.MaxAgeMinutes <= 0 {
		c.Webhook.MaxAgeMinutes = 15
	}
	if c.RateLimit.MaxMemoryEntries <= 0 {
		c.RateLimit.MaxMemoryEntries = 10000
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "jwt"
	}

	defaultClass(&c.RateLimit.Auth, 15*60*1000, 5, "auth", "closed")
	defaultClass(&c.RateLimit.API, 60*1000, 60, "api", "open")
	defaultClass(&c.RateLimit.Payment, 5*60*1000, 10, "payment", "closed")
	defaultClass(&c.RateLimit.Cart, 60*1000, 30, "cart", "open")
	defaultClass(&c.RateLimit.Web, 60*1000, 100, "web", "open")
}

func defaultClass(class *RateLimitClass, windowMs, maxRequests int, prefix, policy string) {
	if class.WindowMs <= 0 {
		class.WindowMs = windowMs
	}
	if class.MaxRequests <= 0 {
		class.MaxRequests = maxRequests
	}
	if class.KeyPrefix == "" {
		class.KeyPrefix = prefix
	}
	if class.FailPolicy == "" {
		class.FailPolicy = policy
	}
}
