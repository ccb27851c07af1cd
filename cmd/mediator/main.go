package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tradepost/go-mediation/common/api"
	awsconfig "github.com/tradepost/go-mediation/common/aws/config"
	"github.com/tradepost/go-mediation/common/aws/ddb"
	"github.com/tradepost/go-mediation/common/aws/queue"
	"github.com/tradepost/go-mediation/common/config"
	"github.com/tradepost/go-mediation/common/db"
	"github.com/tradepost/go-mediation/common/db/memory"
	"github.com/tradepost/go-mediation/common/db/sqlite"
	"github.com/tradepost/go-mediation/common/ipfs"
	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/common/metrics"
	"github.com/tradepost/go-mediation/common/notifs"
	"github.com/tradepost/go-mediation/common/staff"
	"github.com/tradepost/go-mediation/models"
	"github.com/tradepost/go-mediation/services"
)

const shutdownWaitTime = 30 * time.Second

func main() {
	var args struct {
		EnvFile string `arg:"--env,env:ENV_FILE" help:"path to an .env file to load before reading the environment"`
	}
	arg.MustParse(&args)

	cfg, err := config.Load(args.EnvFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := loggers.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	serverCtx, serverCtxCancel := context.WithCancel(context.Background())
	defer serverCtxCancel()

	metricService, err := metrics.NewOtelMetricService(serverCtx, cfg.MetricsEndpoint, logger)
	if err != nil {
		logger.Fatalf("failed to create metric service: %v", err)
	}

	requestDb, closeDb, err := newRequestDb(serverCtx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to create %s request store: %v", cfg.StoreBackend, err)
	}
	defer closeDb()
	logger.Infof("using %s request store", cfg.StoreBackend)

	if err = metricService.Gauge(serverCtx, models.MetricName_PendingRequests, db.NewDbMonitor(requestDb)); err != nil {
		logger.Fatalf("failed to create pending requests gauge: %v", err)
	}

	discordHandler, err := notifs.NewDiscordHandler(logger, notifs.WebhookUrls{
		Alert:  cfg.DiscordAlertWebhook,
		Events: cfg.DiscordEventsWebhook,
		Test:   cfg.DiscordTestWebhook,
	})
	if err != nil {
		logger.Fatalf("failed to create discord handler: %v", err)
	}

	// Flow:
	// ====
	// 1. Intake creates pending requests
	// 2. The transition engine moves requests between states with conditional writes against the request store
	// 3. Every successful transition is handed to the dispatcher, which fans it out to the events queue, IPFS pubsub
	//    and Discord without holding up the caller
	var publishers []models.EventPublisher
	if discordHandler.HasEvents() {
		publishers = append(publishers, discordHandler)
	}
	if cfg.EventsQueueEnabled {
		awsCfg, err := awsconfig.AwsConfig(serverCtx, cfg.AwsRegion, cfg.AwsEndpoint)
		if err != nil {
			logger.Fatalf("failed to create aws cfg: %v", err)
		}
		eventsPublisher, err := queue.NewPublisher(serverCtx, sqs.NewFromConfig(awsCfg), queue.Opts{
			QueueType: queue.Type_Events,
			Env:       cfg.Env,
		})
		if err != nil {
			logger.Fatalf("failed to create events publisher: %v", err)
		}
		if err = metricService.QueueGauge(serverCtx, "events_queue", eventsPublisher.Monitor()); err != nil {
			logger.Fatalf("failed to create events queue gauge: %v", err)
		}
		publishers = append(publishers, eventsPublisher)
		logger.Infof("publishing events to queue %s", eventsPublisher.Name())
	}
	if len(cfg.IpfsApiUrl) > 0 {
		pubsubPublisher, err := ipfs.NewPubsubPublisher(logger, cfg.IpfsApiUrl, cfg.PubsubTopicPrefix())
		if err != nil {
			logger.Fatalf("failed to create ipfs pubsub publisher: %v", err)
		}
		publishers = append(publishers, pubsubPublisher)
		logger.Infof("announcing events on ipfs pubsub under %s", cfg.PubsubTopicPrefix())
	}
	dispatcher := services.NewDispatchService(serverCtx, publishers, cfg.EventQueueDepth, discordHandler, metricService, logger)

	directory := staff.NewStaticDirectory(cfg.MediatorStaff)
	logger.Infof("loaded %d mediator staff identities", directory.Size())

	engine := services.NewTransitionService(requestDb, directory, dispatcher, discordHandler, metricService, logger)
	apiServer := api.NewServer(
		engine,
		services.NewIntakeService(requestDb, metricService, logger),
		services.NewViewService(requestDb, directory, logger),
		logger,
	)
	server := &http.Server{
		Addr:              cfg.HttpAddr,
		Handler:           apiServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		interruptCh := make(chan os.Signal, 1)
		signal.Notify(interruptCh, syscall.SIGINT, syscall.SIGTERM)
		<-interruptCh
		logger.Infof("shutdown started")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownWaitTime)
		defer shutdownCancel()

		// Stop taking new calls, then let in-flight events go out before cancelling the server context
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("error shutting down http server: %v", err)
		}
		dispatcher.Wait()
		engine.Wait()
		serverCtxCancel()
		metricService.Shutdown(shutdownCtx)
		close(shutdownDone)
	}()

	logger.Infof("listening on %s", cfg.HttpAddr)
	if err = server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server failed: %v", err)
	}
	<-shutdownDone
	logger.Infof("shutdown complete")
}

// newRequestDb builds the configured request store and returns a function that releases it.
func newRequestDb(ctx context.Context, cfg *config.Config, logger models.Logger) (models.RequestRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackend_Sqlite:
		store, err := sqlite.Open(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Errorf("error closing sqlite store: %v", err)
			}
		}, nil
	case config.StoreBackend_Postgres:
		requestDb, err := db.NewRequestDb(ctx, logger, db.RequestDbOpts{Url: cfg.DatabaseUrl})
		if err != nil {
			return nil, nil, err
		}
		return requestDb, requestDb.Close, nil
	case config.StoreBackend_DynamoDb:
		// Use override endpoint, if specified, for the request table so that requests can be stored locally while
		// hitting regular AWS endpoints for other operations.
		endpoint := cfg.AwsEndpoint
		if len(cfg.DbAwsEndpoint) > 0 {
			logger.Infof("using custom request db endpoint: %s", cfg.DbAwsEndpoint)
			endpoint = cfg.DbAwsEndpoint
		}
		awsCfg, err := awsconfig.AwsConfig(ctx, cfg.AwsRegion, endpoint)
		if err != nil {
			return nil, nil, err
		}
		requestDb, err := ddb.NewRequestDb(ctx, logger, dynamodb.NewFromConfig(awsCfg), cfg.Env)
		if err != nil {
			return nil, nil, err
		}
		return requestDb, func() {}, nil
	default:
		return memory.NewRequestStore(), func() {}, nil
	}
}
