package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fmbento/flights-tracker/internal/aigen"
	"github.com/fmbento/flights-tracker/internal/alerts"
	"github.com/fmbento/flights-tracker/internal/config"
	"github.com/fmbento/flights-tracker/internal/content"
	"github.com/fmbento/flights-tracker/internal/metrics"
	"github.com/fmbento/flights-tracker/internal/notification"
	"github.com/fmbento/flights-tracker/internal/runner"
	"github.com/fmbento/flights-tracker/internal/search"
	"github.com/fmbento/flights-tracker/internal/server"
	"github.com/fmbento/flights-tracker/internal/storage"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config     *config.Config
	store      storage.Store
	searcher   *search.Client
	processor  *alerts.Processor
	lifecycle  *alerts.LifecycleManager
	generator  *content.Generator
	dispatcher *notification.Dispatcher
	runner     *runner.Runner
	scheduler  *runner.Scheduler
	server     *server.HTTPServer
	metrics    *metrics.Manager
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	utils.GetLogger().WithField("level", logCfg.Level).Info("Logger initialized")
	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	logger := utils.GetLogger()
	logger.Info("Initializing application components")

	var prom *metrics.PrometheusMetrics
	if app.config.Server.EnableMetrics {
		app.metrics = metrics.NewManager()
		prom = app.metrics.GetPrometheusMetrics()
	}

	// Storage
	store, err := storage.NewStore(&storage.Config{
		Type:             app.config.Storage.Type,
		ConnectionString: app.config.Storage.ConnectionString,
		MaxConnections:   app.config.Storage.MaxConnections,
		MaxIdleTime:      app.config.Storage.MaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}
	app.store = store
	if prom != nil {
		app.store = storage.NewInstrumentedStore(store, prom)
	}

	// Flight search collaborator
	app.searcher = search.NewClient(&search.ClientConfig{
		BaseURL:        app.config.Search.BaseURL,
		APIKey:         app.config.Search.APIKey,
		RequestTimeout: app.config.Search.RequestTimeout,
		RetryAttempts:  app.config.Search.RetryAttempts,
		RetryDelay:     app.config.Search.RetryDelay,
	})
	if prom != nil {
		app.searcher.WithMetrics(prom)
	}

	// Alert processing
	app.processor = alerts.NewProcessor(app.searcher, &alerts.ProcessorConfig{
		MaxFlightsPerAlert:    app.config.Alerts.MaxFlightsPerAlert,
		MaxConcurrentSearches: app.config.Alerts.MaxConcurrentSearches,
	})
	if prom != nil {
		app.processor.WithMetrics(prom)
	}
	app.lifecycle = alerts.NewLifecycleManager(app.store)

	// Content generation. A nil client keeps the deterministic fallback path.
	generationClient := aigen.NewClient(&aigen.ClientConfig{
		BaseURL:        app.config.Generation.BaseURL,
		APIKey:         app.config.Generation.APIKey,
		Model:          app.config.Generation.Model,
		RequestTimeout: app.config.Generation.RequestTimeout,
	})
	if generationClient == nil {
		app.generator = content.NewGenerator(nil)
	} else {
		app.generator = content.NewGenerator(generationClient)
	}

	// Email delivery
	transport := notification.NewSMTPTransport(&notification.SMTPConfig{
		Host:     app.config.Notifications.SMTPHost,
		Port:     app.config.Notifications.SMTPPort,
		Username: app.config.Notifications.Username,
		Password: app.config.Notifications.Password,
	})
	app.dispatcher = notification.NewDispatcher(&notification.DispatcherConfig{
		FromEmail: app.config.Notifications.FromEmail,
		FromName:  app.config.Notifications.FromName,
	}, transport)

	// Runner and scheduler
	app.runner = runner.NewRunner(&runner.Config{
		DedupWindowHours: app.config.Alerts.DedupWindowHours,
		SendEnabled:      app.config.Notifications.Enabled,
	}, app.store, app.lifecycle, app.processor, app.generator, app.dispatcher)
	if prom != nil {
		app.runner.WithMetrics(prom)
	}

	if app.config.Alerts.EnableScheduler {
		app.scheduler = runner.NewScheduler(app.runner, app.store, app.config.Alerts.ScheduleInterval)
	}

	// HTTP server
	app.server = server.NewHTTPServer(&server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}, app.store, app.runner, app.scheduler, app.processor, app.metrics)

	logger.Info("All components initialized successfully")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	logger := utils.GetLogger()
	logger.WithField("version", AppVersion).Info("Starting flights tracker")

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if app.scheduler != nil {
		if err := app.scheduler.Start(app.ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	logger.WithField("address",
		fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port)).
		Info("Flights tracker started successfully")

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	logger := utils.GetLogger()
	logger.Info("Stopping flights tracker")

	app.cancel()

	if app.scheduler != nil {
		if err := app.scheduler.Stop(); err != nil {
			logger.WithField("error", err).Error("Failed to stop scheduler")
		}
	}

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.WithField("error", err).Error("Failed to stop HTTP server")
		}
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logger.WithField("error", err).Error("Failed to close storage")
		}
	}

	logger.Info("Flights tracker stopped successfully")
	return nil
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "alerter",
	Short:   "Flight price alert notification service",
	Long:    `Monitors saved flight alerts, searches current fares, and sends daily digest and price-drop emails.`,
	Version: AppVersion,
	RunE:    runService,
}

// runService is the main command to run the alerting service
func runService(cmd *cobra.Command, args []string) error {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	return nil
}

// runOnceCmd triggers a single notification pass for one user and exits
var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run one notification pass for a user and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		force, _ := cmd.Flags().GetBool("force")
		if userID == "" {
			return fmt.Errorf("--user-id is required")
		}

		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		app, err := NewApplication(cfg)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		defer app.store.Close()

		result, err := app.runner.RunForUser(cmd.Context(), userID, force)
		if err != nil {
			return fmt.Errorf("notification run failed: %w", err)
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Flights Tracker %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Search API: %s\n", cfg.Search.BaseURL)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)
		fmt.Printf("Generation enabled: %t\n", cfg.Generation.APIKey != "")

		return nil
	},
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	runOnceCmd.Flags().String("user-id", "", "user to run the pass for")
	runOnceCmd.Flags().Bool("force", false, "bypass the once-per-day guard")

	rootCmd.AddCommand(runOnceCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
