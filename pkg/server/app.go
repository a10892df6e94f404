package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"QuantPull/internal/domain/repository"
	"QuantPull/internal/usecase"
	pkgch "QuantPull/pkg/clickhouse"
	"QuantPull/pkg/config"
	xhttp "QuantPull/pkg/http"
	pkgkafka "QuantPull/pkg/kafka"
	applogger "QuantPull/pkg/logger"
	"QuantPull/pkg/queue"
)

// App encapsulates the entire application lifecycle: schema init, HTTP
// server, queue workers, the collection scheduler and the streaming
// article intake.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	proc        *usecase.TableProcessor
	storage     repository.Storage
	jobQueue    *queue.RedisQueue
	scheduler   *usecase.CollectScheduler
	intake      *usecase.ArticleIntake
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. Nil components are
// features the configuration left disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	proc *usecase.TableProcessor,
	storage repository.Storage,
	jobQueue *queue.RedisQueue,
	scheduler *usecase.CollectScheduler,
	intake *usecase.ArticleIntake,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		proc:      proc,
		storage:   storage,
		jobQueue:  jobQueue,
		scheduler: scheduler,
		intake:    intake,
		consumer:  consumer,
		kh:        kh,
		producer:  producer,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Logger.Collector.Enabled && a.producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Logger.Collector.FlushInterval,
			CountThreshold: a.cfg.Logger.Collector.CountThreshold,
			Topic:          a.cfg.Logger.Collector.Topic,
			Publisher:      a.producer,
		})
	}

	if a.storage != nil {
		if err := a.storage.Init(ctx); err != nil {
			a.log.Error("storage init failed", applogger.Error(err))
			return err
		}
		a.log.Info("storage ready", applogger.String("database", a.cfg.ClickHouse.Database))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
		xhttp.WithServerLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Queue workers. Producer-only processes skip this and only enqueue.
	if err := a.jobQueue.Start(); err != nil {
		a.log.Error("queue start error", applogger.Error(err))
		return err
	}

	a.scheduler.Start(ctx)

	if a.intake != nil {
		if err := a.intake.Start(ctx); err != nil {
			// the batch pipelines still work without the live feed
			a.log.Error("article intake start error", applogger.Error(err))
		} else {
			a.log.Info("article intake started")
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first so its final flush still has somewhere to
// write, then drains the workers, then closes the infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.intake != nil {
		if err := a.intake.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("article intake stop error", applogger.Error(err))
		}
	}

	if err := a.jobQueue.Stop(shutdownCtx); err != nil {
		a.log.Warn("queue stop error", applogger.Error(err))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	// flush the aggregated logs while the producer is still open
	a.log.RemoveCollector()

	// closes the publisher and the storage binding
	a.proc.Close()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
	return nil
}
