package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appser/appser-store/internal/auth"
	"github.com/appser/appser-store/internal/events"
	"github.com/appser/appser-store/internal/grpc"
	"github.com/appser/appser-store/internal/health"
	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/middleware"
	"github.com/appser/appser-store/internal/reconcile"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/storefront"
	"github.com/appser/appser-store/internal/websocket"
	"github.com/appser/appser-store/pkg/config"
	"github.com/appser/appser-store/pkg/database"
	"github.com/appser/appser-store/pkg/discovery"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/metrics"
	"github.com/gin-gonic/gin"
)

type ServerOrchestrator struct {
	logger     *logger.Logger
	config     *config.ServerConfig
	services   *config.ServicesConfig
	db         *sql.DB
	httpServer *http.Server
	wsServer   *websocket.Server
	grpcServer *grpc.Server
	amqp       *events.AMQPPublisher
	reconciler *reconcile.Reconciler
	announcer  *discovery.Broadcaster
	limiter    *middleware.RateLimiter
	stopChan   chan os.Signal
	limiterCh  chan struct{}
}

func NewServerOrchestrator(db *sql.DB, cfg *config.ServerConfig) *ServerOrchestrator {
	return &ServerOrchestrator{
		logger:    logger.GetLogger(),
		config:    cfg,
		services:  config.LoadServicesConfig(cfg),
		db:        db,
		stopChan:  make(chan os.Signal, 1),
		limiterCh: make(chan struct{}),
	}
}

func (o *ServerOrchestrator) initializeServers() error {
	o.logger.Info("initializing_servers")

	renderer := render.New(render.Options{
		Locale:       o.config.Locale,
		DefaultImage: o.config.DefaultImage,
		PublicURL:    o.config.PublicURL,
	})

	// Live stats hub first: the listing service publishes to it.
	o.wsServer = websocket.NewServer(nil, renderer.Formatter())
	publishers := events.Fanout{o.wsServer}

	if o.config.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(o.config.AMQPURL, o.config.AMQPQueue)
		if err != nil {
			// The store keeps working without the downstream queue.
			o.logger.Warn("amqp_unavailable", "error", err.Error())
		} else {
			o.amqp = amqpPublisher
			publishers = append(publishers, amqpPublisher)
			o.logger.Info("amqp_publisher_ready", "queue", o.config.AMQPQueue)
		}
	}

	repo := listing.NewDBRepository(o.db)
	svc := listing.NewService(repo, publishers)
	o.wsServer.SetLoader(svc)

	reconciler, err := reconcile.New(svc, o.config.ReconcileSchedule)
	if err != nil {
		return err
	}
	o.reconciler = reconciler

	healthHandler := health.NewHandler(func() *sql.DB { return database.DB }, o.wsServer)
	o.limiter = middleware.NewRateLimiter(o.config.RateLimit, o.config.RateBurst)

	gin.SetMode(gin.ReleaseMode)
	router, err := storefront.NewRouter(storefront.RouterConfig{
		Handler:     storefront.NewHandler(svc, renderer, middleware.NewCooldown(o.config.DownloadCooldown)),
		Auth:        auth.NewHandler(o.config.JWTSecret, o.config.AdminKey),
		Health:      healthHandler,
		Metrics:     metrics.NewHandler(),
		Live:        o.wsServer,
		Limiter:     o.limiter,
		Services:    o.services,
		FrontendURL: o.config.FrontendURL,
	})
	if err != nil {
		return err
	}
	o.httpServer = &http.Server{
		Addr:              "0.0.0.0:" + o.config.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if o.config.EnableGRPC {
		o.logger.Info("initializing_grpc_server", "port", o.config.GRPCPort)
		o.grpcServer = grpc.NewServer(healthHandler, 5*time.Second)
	}

	o.logger.Info("servers_initialized")
	return nil
}

func (o *ServerOrchestrator) Start() error {
	if err := o.initializeServers(); err != nil {
		return fmt.Errorf("failed to initialize servers: %w", err)
	}

	errChan := make(chan error, 2)

	go func() {
		o.logger.Info("starting_http_server", "bind", o.httpServer.Addr, "local_ip", o.services.LocalIP)
		if err := o.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("http_server_start_failed", "error", err.Error())
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	if o.grpcServer != nil {
		go func() {
			o.logger.Info("starting_grpc_server", "port", o.config.GRPCPort, "local_ip", o.services.LocalIP)
			if err := o.grpcServer.Start(o.config.GRPCPort); err != nil {
				o.logger.Error("grpc_server_start_failed", "error", err.Error())
				errChan <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	o.reconciler.Start()
	if o.config.EnableDiscovery {
		o.announcer = discovery.NewBroadcaster(o.config.DiscoveryAddr, o.services.LocalIP, o.services.ServiceURLs())
		o.announcer.Start()
		o.logger.Info("lan_discovery_started", "addr", o.config.DiscoveryAddr)
	}
	o.limiter.StartCleanup(10*time.Minute, o.limiterCh)

	select {
	case err := <-errChan:
		o.logger.Error("server_start_error", "error", err.Error())
		return err
	case <-time.After(500 * time.Millisecond):
		o.logger.Info("all_servers_started_successfully")
	}

	signal.Notify(o.stopChan, os.Interrupt, syscall.SIGTERM)
	return nil
}

func (o *ServerOrchestrator) WaitForShutdown() {
	sig := <-o.stopChan
	o.logger.Info("shutdown_signal_received", "signal", sig.String())
	o.Shutdown()
}

func (o *ServerOrchestrator) Shutdown() {
	o.logger.Info("orchestrator_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if o.httpServer != nil {
			o.logger.Info("stopping_http_server")
			if err := o.httpServer.Shutdown(ctx); err != nil {
				o.logger.Warn("http_shutdown_failed", "error", err.Error())
			}
		}

		if o.grpcServer != nil {
			o.logger.Info("stopping_grpc_server")
			o.grpcServer.Stop()
		}

		if o.reconciler != nil {
			o.reconciler.Stop()
		}

		if o.announcer != nil {
			o.announcer.Stop()
		}

		if o.wsServer != nil {
			o.logger.Info("stopping_live_stats")
			o.wsServer.Stop()
		}

		if o.amqp != nil {
			if err := o.amqp.Close(); err != nil {
				o.logger.Warn("amqp_close_failed", "error", err.Error())
			}
		}

		close(o.limiterCh)
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("graceful_shutdown_complete")
	case <-ctx.Done():
		o.logger.Warn("shutdown_timeout_forcing_stop")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.LogLevel(cfg.LogLevel), cfg.LogFormat == "json", os.Stdout)
	log := logger.GetLogger()

	log.Info("appser_store_starting", "http_port", cfg.HTTPPort, "locale", cfg.Locale)

	if cfg.UsingDefaultSecret() {
		log.Warn("using_default_jwt_secret")
	}
	if cfg.AdminKey == "" {
		log.Warn("admin_key_not_set", "effect", "token issuing disabled")
	}

	if err := database.InitDatabase(cfg.DBPath); err != nil {
		log.Error("database_init_failed", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	orchestrator := NewServerOrchestrator(database.DB, cfg)

	if err := orchestrator.Start(); err != nil {
		log.Error("orchestrator_start_failed", "error", err.Error())
		os.Exit(1)
	}

	log.Info("appser_store_running",
		"grpc", cfg.EnableGRPC,
		"amqp", orchestrator.amqp != nil,
		"reconciler", orchestrator.reconciler.Enabled())

	orchestrator.WaitForShutdown()
	log.Info("appser_store_stopped")
}
