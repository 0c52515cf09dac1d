package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sensor_console/internal/channel"
	"sensor_console/internal/chart"
	"sensor_console/internal/handlers"
	"sensor_console/internal/history"
	"sensor_console/internal/logger"
	"sensor_console/internal/metrics"
	"sensor_console/internal/models"
	"sensor_console/internal/repository"
	"sensor_console/internal/repository/db"
	"sensor_console/internal/router"
	"sensor_console/internal/server"
	"sensor_console/internal/service"

	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load config.yml; defaults cover a missing file
	cfgErr := loadConfig()

	// init logger
	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// board link
	m := metrics.New()
	endpoint, err := channel.Endpoint(viper.GetString("board.address"))
	if err != nil {
		log.Fatalw("invalid board address", "err", err, "address", viper.GetString("board.address"))
	}
	mgr := channel.NewManager(channel.Options{
		Endpoint:  endpoint,
		Reconnect: channel.FixedInterval{Interval: viper.GetDuration("board.reconnect_interval")},
		Metrics:   m,
	}, log)

	// wire dependencies
	devices, err := loadDevices()
	if err != nil {
		log.Fatalw("invalid devices config", "err", err)
	}
	repos := repository.NewRepository(conn)
	services, dashboard, err := service.NewService(repos, mgr, service.Options{
		Devices:          devices,
		HistoryCapacity:  viper.GetInt("history.capacity"),
		MaxBars:          viper.GetInt("tinyml.max_bars"),
		ChartRenderer:    viper.GetString("chart.renderer"),
		ChartWidth:       viper.GetInt("chart.width"),
		ChartHeight:      viper.GetInt("chart.height"),
		StatusClearAfter: viper.GetDuration("status.clear_after"),
		AckTimeout:       viper.GetDuration("status.ack_timeout"),
		Metrics:          m,
	}, log)
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}
	mgr.SetObserver(dashboard)
	apiHandler := handlers.NewHandler(services, m.Handler(), log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// hold the board connection for the lifetime of the process
	go func() {
		err := mgr.Run(ctx, router.New(dashboard, m, log))
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("board link stopped", "err", err)
		}
	}()

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.SetDefault("port", server.DefaultPort)
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("board.address", "http://192.168.4.1")
	viper.SetDefault("board.reconnect_interval", channel.DefaultReconnectInterval)
	viper.SetDefault("db.path", "console.db")
	viper.SetDefault("status.clear_after", service.DefaultStatusClearAfter)
	viper.SetDefault("status.ack_timeout", service.DefaultAckTimeout)
	viper.SetDefault("history.capacity", history.DefaultCapacity)
	viper.SetDefault("tinyml.max_bars", service.DefaultMaxBars)
	viper.SetDefault("chart.renderer", chart.KindGoChart)
	viper.SetDefault("chart.width", chart.DefaultWidth)
	viper.SetDefault("chart.height", chart.DefaultHeight)

	// CONSOLE_BOARD_ADDRESS overrides board.address, and so on.
	viper.SetEnvPrefix("console")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// loadDevices reads the device list; an absent list selects the board defaults.
func loadDevices() ([]models.Device, error) {
	var devices []models.Device
	if err := viper.UnmarshalKey("devices", &devices); err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return service.DefaultDevices(), nil
	}
	return devices, nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "console.db")
		dbPath = "console.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the board link
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
