package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/internal/handler/api"
	icache "SignalGuard/internal/service/cache"
	"SignalGuard/internal/usecase"
	pkgch "SignalGuard/pkg/clickhouse"
	"SignalGuard/pkg/config"
	xhttp "SignalGuard/pkg/http"
	pkgkafka "SignalGuard/pkg/kafka"
	applogger "SignalGuard/pkg/logger"
	"SignalGuard/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.SignalCollector
	consumer    *pkgkafka.Consumer
	signalsH    pkgkafka.MessageHandler
	outcomesH   pkgkafka.MessageHandler
	retryQueue  *queue.RedisQueue
	orch        domsvc.Orchestrator
	candles     *usecase.CandlesUseCase
	proc        *usecase.VerdictProcessor
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.SignalCollector,
	consumer *pkgkafka.Consumer,
	signalsH pkgkafka.MessageHandler,
	outcomesH pkgkafka.MessageHandler,
	retryQueue *queue.RedisQueue,
	orch domsvc.Orchestrator,
	candles *usecase.CandlesUseCase,
	proc *usecase.VerdictProcessor,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		collector:  collector,
		consumer:   consumer,
		signalsH:   signalsH,
		outcomesH:  outcomesH,
		retryQueue: retryQueue,
		orch:       orch,
		candles:    candles,
		proc:       proc,
		chClient:   chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil {
		h := api.NewValidationEchoHandler(l, a.orch, a.candles)
		if a.cfg.Redis.Enabled {
			h.SetVerdictCache(icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			}))
		}
		httpHandler = h
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)

	// Start peer collector when configured
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("peer collector started", applogger.Strings("symbols", a.cfg.PeerFeed.Symbols))
	}

	// Start retry queue if configured
	if a.retryQueue != nil {
		if err := a.retryQueue.Start(); err != nil {
			l.Error("retry queue start error", applogger.Error(err))
			return err
		}
		l.Info("retry queue started")
	}

	// Start consumer if configured
	if a.consumer != nil {
		if a.signalsH != nil {
			a.consumer.RegisterHandler(a.signalsH)
		}
		if a.outcomesH != nil {
			a.consumer.RegisterHandler(a.outcomesH)
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started",
			applogger.String("signals_topic", a.cfg.Kafka.SignalsTopic),
			applogger.String("outcomes_topic", a.cfg.Kafka.OutcomesTopic))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log
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

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Stop retry queue
	if a.retryQueue != nil {
		if err := a.retryQueue.Stop(shutdownCtx); err != nil {
			l.Warn("retry queue stop error", applogger.Error(err))
		}
	}

	// Close verdict publisher resources
	if a.proc != nil {
		a.proc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Flush any aggregated logs before exit
	l.RemoveCollector()

	l.Info("shutdown complete")
	return nil
}
