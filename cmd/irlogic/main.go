// IRLogic Core - IR Remote Translation Service
//
// This is the main entry point for the IRLogic Core application.
// IRLogic turns decoded infra-red signals into key presses on virtual
// input devices:
//   - Remote/keymap tree configured over a REST API
//   - Decoded signals arriving from receiver bridges over MQTT
//   - One virtual input device per remote, one per receiver
//   - Signal history in SQLite, optional telemetry in InfluxDB
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/irlogic/irlogic-core/migrations"

	"github.com/irlogic/irlogic-core/internal/api"
	"github.com/irlogic/irlogic-core/internal/auth"
	"github.com/irlogic/irlogic-core/internal/bridges/irrecv"
	"github.com/irlogic/irlogic-core/internal/history"
	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
	"github.com/irlogic/irlogic-core/internal/infrastructure/database"
	"github.com/irlogic/irlogic-core/internal/infrastructure/influxdb"
	"github.com/irlogic/irlogic-core/internal/infrastructure/logging"
	"github.com/irlogic/irlogic-core/internal/infrastructure/mqtt"
	"github.com/irlogic/irlogic-core/internal/input"
	"github.com/irlogic/irlogic-core/internal/keymap"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	hashPassword := flag.Bool("hash-password", false,
		"read a password from stdin, print its Argon2id hash for config.yaml, and exit")
	flag.Parse()

	if *hashPassword {
		if err := printPasswordHash(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printPasswordHash reads one line from r and writes its PHC-encoded
// Argon2id hash to w, for pasting into security.admin.password_hash.
// Reading from stdin keeps the plaintext out of shell history.
func printPasswordHash(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Fprintln(w, hash)
	return nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting IRLogic Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	schemaVersion, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	log.Info("database migrations complete", "schema", schemaVersion)

	// Signal history repository
	historyRepo := history.NewSQLiteRepository(db.DB)

	// Input backend: real kernel devices or in-process ones
	backend, err := buildInputBackend(cfg.Input)
	if err != nil {
		return fmt.Errorf("initialising input backend: %w", err)
	}
	log.Info("input backend initialised", "backend", cfg.Input.Backend)

	// Keymap tree
	tree := keymap.NewTree(backend)
	tree.SetLogger(log.With("component", "keymap"))
	defer func() {
		log.Info("tearing down keymap tree")
		tree.Close()
	}()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub, shared between API server and receiver bridge
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Receiver bridge: MQTT decoded signals into the tree
	bridge, err := startBridge(ctx, cfg, tree, backend, historyRepo, hub, influxClient, mqttClient, log)
	if err != nil {
		return fmt.Errorf("starting receiver bridge: %w", err)
	}
	defer func() {
		log.Info("stopping receiver bridge")
		bridge.Stop()
	}()

	// API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log.With("component", "api"),
		Tree:        tree,
		History:     historyRepo,
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Announce shutdown to MQTT consumers before the defer chain tears
	// the connection down.
	if err := mqttClient.PublishString(mqtt.Topics{}.SystemShutdown(), "shutting down", 0, false); err != nil {
		log.Warn("publishing shutdown notice", "error", err)
	}

	log.Info("IRLogic Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses IRLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IRLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildInputBackend selects the input device backend from config.
func buildInputBackend(cfg config.InputConfig) (input.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return input.NewMemoryBackend(), nil
	default:
		return input.NewUinputBackend()
	}
}

// startBridge initialises and starts the IR receiver bridge.
func startBridge(
	ctx context.Context,
	cfg *config.Config,
	tree *keymap.Tree,
	backend input.Backend,
	historyRepo history.Repository,
	hub *api.Hub,
	influxClient *influxdb.Client,
	mqttClient *mqtt.Client,
	log *logging.Logger,
) (*irrecv.Bridge, error) {
	deps := irrecv.Deps{
		Tree:    tree,
		MQTT:    mqttClient,
		Backend: backend,
		History: historyRepo,
		Hub:     hub,
		Logger:  log.With("component", "irrecv"),
		QoS:     byte(cfg.MQTT.QoS),
	}
	// A nil *influxdb.Client must stay a nil interface.
	if influxClient != nil {
		deps.Telemetry = influxClient
	}

	bridge, err := irrecv.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("receiver bridge started")

	return bridge, nil
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
