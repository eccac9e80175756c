package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"neurowind/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	Cities     []models.City    `yaml:"cities" validate:"min=1,dive"`
	Weather    WeatherConfig    `yaml:"weather"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Alert      AlertConfig      `yaml:"alert"`
	Email      EmailConfig      `yaml:"email"`
	AI         AIConfig         `yaml:"ai"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Storage    StorageConfig    `yaml:"storage"`
	Schedule   string           `yaml:"schedule" validate:"required"`
}

type WeatherConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"` // negative disables the city cache
	CacheSize       int           `yaml:"cache_size" validate:"gte=0"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
}

type PipelineConfig struct {
	DefaultCity string  `yaml:"default_city"`
	Threshold   float64 `yaml:"threshold" validate:"gte=0.1,lte=1"`
	Window      int     `yaml:"window" validate:"gte=1,lte=5"`
}

type AlertConfig struct {
	Armed            bool          `yaml:"armed"`
	Recipient        string        `yaml:"recipient" validate:"omitempty,email"`
	NotifyOnSchedule bool          `yaml:"notify_on_schedule"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

type EmailConfig struct {
	Provider   string       `yaml:"provider" validate:"oneof=smtp gmail ses log"`
	SMTPServer string       `yaml:"smtp_server" validate:"required_if=Provider smtp"`
	SMTPPort   int          `yaml:"smtp_port"`
	Username   string       `yaml:"username" validate:"required_if=Provider smtp"`
	Password   SecretString `yaml:"password" validate:"required_if=Provider smtp"`
	FromEmail  string       `yaml:"from_email" validate:"omitempty,email"`
	FromName   string       `yaml:"from_name"`

	// Gmail API delivery
	ClientID     string       `yaml:"client_id" validate:"required_if=Provider gmail"`
	ClientSecret SecretString `yaml:"client_secret" validate:"required_if=Provider gmail"`
	TokenFile    string       `yaml:"token_file"`

	// SES delivery
	SESRegion    string `yaml:"ses_region" validate:"required_if=Provider ses"`
	SESConfigSet string `yaml:"ses_config_set"`
}

type AIConfig struct {
	GeminiAPIKey SecretString `yaml:"gemini_api_key"`
	Model        string       `yaml:"model"`
}

// Enabled reports whether alert emails get an AI briefing.
func (c AIConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// secretEnv lists the values that may only come from the environment or .env.
type secretEnv struct {
	EmailUsername      string `envconfig:"EMAIL_USERNAME"`
	EmailPassword      string `envconfig:"EMAIL_PASSWORD"`
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GeminiAPIKey       string `envconfig:"GEMINI_API_KEY"`
	AlertRecipient     string `envconfig:"ALERT_RECIPIENT"`
}

// Load reads the YAML file named by CONFIG_FILE (default config.yaml), then
// fills credentials from the environment. A missing default file is not an
// error; the built-in defaults are used instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		data = nil
	}

	return Parse(data)
}

// Parse builds a Config from YAML content, applying environment secrets,
// defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var env secretEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv(env secretEnv) {
	if c.Email.Username == "" {
		c.Email.Username = env.EmailUsername
	}
	if c.Email.Password == "" {
		c.Email.Password = SecretString(env.EmailPassword)
	}
	if c.Email.ClientID == "" {
		c.Email.ClientID = env.GoogleClientID
	}
	if c.Email.ClientSecret == "" {
		c.Email.ClientSecret = SecretString(env.GoogleClientSecret)
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = SecretString(env.GeminiAPIKey)
	}
	if c.Alert.Recipient == "" {
		c.Alert.Recipient = env.AlertRecipient
	}
}

func (c *Config) applyDefaults() {
	if len(c.Cities) == 0 {
		c.Cities = DefaultCities()
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 30 * time.Second
	}
	if c.Weather.CacheTTL == 0 {
		c.Weather.CacheTTL = 15 * time.Minute
	}
	if c.Weather.CacheSize == 0 {
		c.Weather.CacheSize = len(c.Cities)
	}
	if c.Weather.BreakerFailures == 0 {
		c.Weather.BreakerFailures = 5
	}
	if c.Pipeline.DefaultCity == "" {
		c.Pipeline.DefaultCity = c.Cities[0].Name
	}
	if c.Pipeline.Threshold == 0 {
		c.Pipeline.Threshold = 0.3
	}
	if c.Pipeline.Window == 0 {
		c.Pipeline.Window = 3
	}
	if c.Alert.Cooldown == 0 {
		c.Alert.Cooldown = 6 * time.Hour
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "smtp"
		if c.Email.Username == "" {
			c.Email.Provider = "log"
		}
	}
	if c.Email.SMTPServer == "" && c.Email.Provider == "smtp" {
		c.Email.SMTPServer = "smtp.gmail.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 465
	}
	if c.Email.FromEmail == "" && c.Email.Username != "" {
		c.Email.FromEmail = c.Email.Username
	}
	if c.Email.TokenFile == "" {
		c.Email.TokenFile = "gmail_token.json"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 60 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8081
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 * * * *" // hourly, on the hour
	}
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, ok := c.City(c.Pipeline.DefaultCity); !ok {
		return fmt.Errorf("default city %q is not in the configured cities", c.Pipeline.DefaultCity)
	}
	seen := make(map[string]bool, len(c.Cities))
	for _, city := range c.Cities {
		if seen[city.Name] {
			return fmt.Errorf("city %q is configured twice", city.Name)
		}
		seen[city.Name] = true
	}
	return nil
}

// City looks up a configured city by name.
func (c *Config) City(name string) (models.City, bool) {
	for _, city := range c.Cities {
		if city.Name == name {
			return city, true
		}
	}
	return models.City{}, false
}

// DefaultCities returns the five West-African cities covered out of the box.
func DefaultCities() []models.City {
	return []models.City{
		{Name: "Abidjan", Latitude: 5.34, Longitude: -4.03},
		{Name: "Korhogo", Latitude: 9.46, Longitude: -5.63},
		{Name: "Yamoussoukro", Latitude: 6.82, Longitude: -5.28},
		{Name: "Bouaké", Latitude: 7.69, Longitude: -5.03},
		{Name: "San Pedro", Latitude: 4.75, Longitude: -6.65},
	}
}
