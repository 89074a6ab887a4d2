package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NeuroFeat/internal/usecase"
	pkgch "NeuroFeat/pkg/clickhouse"
	"NeuroFeat/pkg/config"
	xhttp "NeuroFeat/pkg/http"
	pkgkafka "NeuroFeat/pkg/kafka"
	applogger "NeuroFeat/pkg/logger"
	"NeuroFeat/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.SegmentCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	taskQueue   *queue.RedisQueue
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	SegmentProc *usecase.SegmentProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.SegmentCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	taskQueue *queue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		taskQueue: taskQueue,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start task queue workers when the redis backend is configured
	if a.taskQueue != nil && a.cfg.Redis.Addr != "" {
		if err := a.taskQueue.Start(); err != nil {
			l.Error("task queue start error", applogger.Error(err))
		} else {
			l.Info("task queue started", applogger.Int("workers", a.cfg.Exec.Workers))
		}
		// aggregate error logs onto the queue once a publisher exists
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "log.errors",
			Publisher:      a.taskQueue,
		})
	}

	// Start collector when a stream is configured
	if a.collector != nil && a.cfg.Stream.URL != "" {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started",
			applogger.String("session", a.cfg.Stream.SessionID),
			applogger.Strings("channels", a.cfg.Stream.Channels))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil && a.cfg.Ingest.Backend == "kafka" {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop task queue workers
	if a.taskQueue != nil {
		if err := a.taskQueue.Stop(shutdownCtx); err != nil {
			l.Warn("task queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close segment processor resources (publisher/storage)
	if a.SegmentProc != nil {
		a.SegmentProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
