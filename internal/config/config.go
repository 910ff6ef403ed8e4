package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Search        SearchConfig       `mapstructure:"search"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Generation    GenerationConfig   `mapstructure:"generation"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// SearchConfig contains flight-search collaborator configuration
type SearchConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// AlertsConfig contains alert processing configuration
type AlertsConfig struct {
	MaxFlightsPerAlert    int           `mapstructure:"max_flights_per_alert"`
	MaxConcurrentSearches int           `mapstructure:"max_concurrent_searches"`
	DedupWindowHours      int           `mapstructure:"dedup_window_hours"`
	ScheduleInterval      time.Duration `mapstructure:"schedule_interval"`
	EnableScheduler       bool          `mapstructure:"enable_scheduler"`
}

// GenerationConfig contains AI content-generation configuration. An empty
// APIKey disables generation entirely and every email falls back to the
// deterministic templates.
type GenerationConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NotificationConfig contains email transport configuration
type NotificationConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./internal/config")
	}

	viper.SetEnvPrefix("FLIGHTS_TRACKER")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}
	if key := os.Getenv("FLIGHT_SEARCH_API_KEY"); key != "" {
		config.Search.APIKey = key
	}
	if key := os.Getenv("GENERATION_API_KEY"); key != "" {
		config.Generation.APIKey = key
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		config.Notifications.Password = password
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "flights-tracker")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Search defaults
	viper.SetDefault("search.base_url", "https://api.flightsearch.example.com")
	viper.SetDefault("search.request_timeout", "30s")
	viper.SetDefault("search.retry_attempts", 3)
	viper.SetDefault("search.retry_delay", "2s")

	// Storage defaults
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/alerts.db")
	viper.SetDefault("storage.max_connections", 25)
	viper.SetDefault("storage.max_idle_time", "15m")

	// Alert processing defaults. The dedup window sits just under 24h so a
	// daily cadence survives scheduler jitter.
	viper.SetDefault("alerts.max_flights_per_alert", 5)
	viper.SetDefault("alerts.max_concurrent_searches", 5)
	viper.SetDefault("alerts.dedup_window_hours", 23)
	viper.SetDefault("alerts.schedule_interval", "1h")
	viper.SetDefault("alerts.enable_scheduler", true)

	// Generation defaults
	viper.SetDefault("generation.base_url", "https://api.generation.example.com")
	viper.SetDefault("generation.model", "structured-email-v1")
	viper.SetDefault("generation.request_timeout", "45s")

	// Notification defaults
	viper.SetDefault("notifications.enabled", true)
	viper.SetDefault("notifications.smtp_host", "localhost")
	viper.SetDefault("notifications.smtp_port", 587)
	viper.SetDefault("notifications.from_email", "alerts@flights-tracker.example.com")
	viper.SetDefault("notifications.from_name", "Flights Tracker")

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search base URL is required")
	}
	if c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Alerts.MaxFlightsPerAlert <= 0 {
		return fmt.Errorf("max flights per alert must be positive")
	}
	if c.Alerts.MaxConcurrentSearches <= 0 {
		return fmt.Errorf("max concurrent searches must be positive")
	}
	if c.Alerts.DedupWindowHours <= 0 {
		return fmt.Errorf("dedup window must be positive")
	}
	if c.Notifications.Enabled && c.Notifications.FromEmail == "" {
		return fmt.Errorf("from email is required when notifications are enabled")
	}
	return nil
}
