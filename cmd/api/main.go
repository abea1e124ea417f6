// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chanscope/internal/adapter/embedding"
	"chanscope/internal/adapter/storage"
	"chanscope/internal/config"
	"chanscope/internal/domain/analysis"
	"chanscope/internal/server"
	"chanscope/internal/server/handlers"
	"chanscope/internal/service/collector"
	"chanscope/internal/service/engine"
	"chanscope/internal/service/monitor"
	"chanscope/internal/service/tasks"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := initLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Initialize storage adapters
	channelStore := storage.NewChannelStore(db)
	postStore := storage.NewPostStore(db)
	connectionStore := storage.NewConnectionStore(db)
	analysisStore := storage.NewAnalysisStore(db)

	// Initialize the analysis engine
	var embedder analysis.Embedder
	if cfg.Embedding.URL != "" {
		embedder = embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Timeout)
	} else {
		logger.Warn("no embedding service configured, semantic similarity disabled")
	}

	contentAnalyzer := engine.NewContentAnalyzer(
		engine.ContentConfig{
			DuplicateThreshold:      cfg.Analysis.DuplicateThreshold,
			HighSimilarityThreshold: cfg.Analysis.HighSimilarityThreshold,
			TopicCount:              cfg.Analysis.TopicCount,
		},
		embedder,
		logger,
	)
	orchestrator := engine.NewOrchestrator(
		contentAnalyzer,
		engine.NewTemporalAnalyzer(logger),
		engine.NewNetworkAnalyzer(logger),
		engine.NewPool(cfg.Analysis.PoolSize),
		logger,
	)

	// Initialize the task runner
	runner := tasks.NewRunner(
		tasks.Config{
			PostsLimit:  cfg.Analysis.PostsLimit,
			PostsWindow: cfg.Analysis.PostsWindow,
			EventsTopic: cfg.NATS.EventsTopic,
		},
		orchestrator,
		channelStore,
		postStore,
		connectionStore,
		analysisStore,
		natsConn,
		logger,
	)

	// Initialize the collector when credentials are present
	var source analysis.PostSource
	if cfg.Collector.BearerToken != "" {
		source = collector.NewSource(cfg.Collector.BearerToken, cfg.Collector.RequestInterval, logger)
	} else {
		logger.Warn("no collector credentials configured, channel import disabled")
	}

	// Initialize monitoring
	metricsCollector := monitor.NewMetricsCollector(
		statsSource{channels: channelStore, posts: postStore, connections: connectionStore},
		redisClient,
		cfg.Monitor.MetricsInterval,
		cfg.Monitor.HistorySize,
		cfg.Monitor.MetricsTTL,
		logger,
	)
	go metricsCollector.Start(ctx)

	systemMonitor := monitor.New(
		monitor.Config{
			CheckInterval:      cfg.Monitor.CheckInterval,
			HistorySize:        cfg.Monitor.HistorySize,
			InactiveAfter:      cfg.Monitor.InactiveAfter,
			DuplicateAlertRate: cfg.Monitor.DuplicateAlertRate,
			EventsTopic:        cfg.NATS.EventsTopic,
		},
		channelStore,
		analysisStore,
		redisClient,
		natsConn,
		logger,
	)
	go systemMonitor.Start(ctx)

	// Initialize HTTP server
	channelHandler := handlers.NewChannelHandler(channelStore, postStore, connectionStore, source, metricsCollector, systemMonitor, logger)
	analysisHandler := handlers.NewAnalysisHandler(runner, logger)

	httpServer := server.NewServer(
		cfg.Server,
		natsConn,
		cfg.NATS.EventsTopic,
		channelHandler,
		analysisHandler,
		logger,
	)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// statsSource adapts the storage counters to the metrics collector.
type statsSource struct {
	channels    *storage.ChannelStore
	posts       *storage.PostStore
	connections *storage.ConnectionStore
}

func (s statsSource) CountChannels(ctx context.Context) (int, error) {
	return s.channels.CountChannels(ctx)
}

func (s statsSource) CountPosts(ctx context.Context) (int, error) {
	return s.posts.CountPosts(ctx)
}

func (s statsSource) CountConnections(ctx context.Context) (int, error) {
	return s.connections.CountConnections(ctx)
}

// Initialize structured logging
func initLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
