// main wires the full service: stores, domain services, the ingest
// pipeline, the retirement sweep, and the HTTP API. Business logic lives in
// the internal packages; this file only assembles and supervises them.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gavel/internal/analytics/confidence"
	analyticshandler "gavel/internal/analytics/handler"
	analyticsmetrics "gavel/internal/analytics/metrics"
	analyticsports "gavel/internal/analytics/ports"
	"gavel/internal/analytics/publisher"
	analyticsservice "gavel/internal/analytics/service"
	analyticsstore "gavel/internal/analytics/store"
	directoryhandler "gavel/internal/directory/handler"
	dirports "gavel/internal/directory/ports"
	directoryservice "gavel/internal/directory/service"
	courtstore "gavel/internal/directory/store/court"
	judgestore "gavel/internal/directory/store/judge"
	docketports "gavel/internal/docket/ports"
	docketstore "gavel/internal/docket/store"
	gavelhttp "gavel/internal/http"
	"gavel/internal/identity"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/ingest"
	ingestmetrics "gavel/internal/ingest/metrics"
	matchmetrics "gavel/internal/match/metrics"
	matchservice "gavel/internal/match/service"
	"gavel/internal/platform/config"
	"gavel/internal/platform/database"
	"gavel/internal/platform/httpserver"
	"gavel/internal/platform/logger"
	"gavel/internal/platform/redis"
	positionhandler "gavel/internal/position/handler"
	positionmetrics "gavel/internal/position/metrics"
	posports "gavel/internal/position/ports"
	"gavel/internal/position/retirement"
	positionservice "gavel/internal/position/service"
	positionstore "gavel/internal/position/store"
	reviewhandler "gavel/internal/review/handler"
	reviewmetrics "gavel/internal/review/metrics"
	reviewports "gavel/internal/review/ports"
	reviewservice "gavel/internal/review/service"
	reviewstore "gavel/internal/review/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hierarchy, err := loadHierarchy(cfg.AliasFile)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores: Postgres when configured, in-memory otherwise. The in-memory
	// fallback keeps local development a single binary.
	var (
		judges    dirports.JudgeStore      = judgestore.NewInMemoryStore()
		courts    dirports.CourtStore      = courtstore.NewInMemoryStore()
		positions posports.Store           = positionstore.NewInMemoryStore()
		docket    docketports.Store        = docketstore.NewInMemoryStore()
		snapshots analyticsports.SnapshotStore = analyticsstore.NewInMemoryStore()
		reviews   reviewports.Store        = reviewstore.NewInMemoryStore()
	)
	if db != nil {
		judges = judgestore.NewPostgres(db)
		courts = courtstore.NewPostgres(db)
		positions = positionstore.NewPostgres(db)
		docket = docketstore.NewPostgres(db)
		snapshots = analyticsstore.NewPostgres(db)
		reviews = reviewstore.NewPostgres(db)
	}

	reviewMx := reviewmetrics.New()
	positionMx := positionmetrics.New()
	matchMx := matchmetrics.New()
	analyticsMx := analyticsmetrics.New()
	ingestMx := ingestmetrics.New()

	positionSvc, err := positionservice.New(positions, courts, judges,
		positionservice.WithLogger(log),
		positionservice.WithMetrics(positionMx))
	if err != nil {
		return err
	}

	reviewSvc, err := reviewservice.New(reviews, docket, positionSvc,
		reviewservice.WithLogger(log),
		reviewservice.WithMetrics(reviewMx))
	if err != nil {
		return err
	}
	positionservice.WithViolationSink(reviewSvc)(positionSvc)

	normalizer := identity.New(hierarchy)
	matchSvc, err := matchservice.New(normalizer, judges, courts, positions,
		matchservice.WithLogger(log),
		matchservice.WithMetrics(matchMx),
		matchservice.WithFuzzyThreshold(cfg.FuzzyThreshold))
	if err != nil {
		return err
	}

	var cache publisher.Cache
	if redisClient != nil {
		cache = publisher.NewRedisCache(redisClient)
	}
	pub, err := publisher.New(snapshots, cache,
		publisher.WithLogger(log),
		publisher.WithMetrics(analyticsMx))
	if err != nil {
		return err
	}

	scorer := confidence.NewScorer(cfg.MinSampleSize, cfg.SufficientSampleSize)
	analyticsSvc, err := analyticsservice.New(docket, positions, snapshots, judges, scorer,
		analyticsservice.WithLogger(log),
		analyticsservice.WithMetrics(analyticsMx),
		analyticsservice.WithPublisher(pub))
	if err != nil {
		return err
	}

	directorySvc, err := directoryservice.New(judges, courts, hierarchy,
		directoryservice.WithLogger(log))
	if err != nil {
		return err
	}

	pipelineOpts := []ingest.PipelineOption{
		ingest.WithPipelineLogger(log),
		ingest.WithPipelineMetrics(ingestMx),
		ingest.WithWorkers(cfg.Workers),
	}
	if cfg.AllowCandidateJudges {
		pipelineOpts = append(pipelineOpts, ingest.WithCandidateCreation(matchSvc))
	}
	pipeline, err := ingest.NewPipeline(matchSvc, positionSvc, positions, docket, courts, reviewSvc, hierarchy, pipelineOpts...)
	if err != nil {
		return err
	}

	sweeper, err := retirement.New(positionSvc, positions, cfg.RetirementHorizon,
		retirement.WithLogger(log),
		retirement.WithMetrics(positionMx))
	if err != nil {
		return err
	}

	health := map[string]gavelhttp.HealthChecker{}
	if db != nil {
		health["database"] = func() error { return db.Ping() }
	}
	if redisClient != nil {
		health["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	router := gavelhttp.NewRouter(health,
		directoryhandler.New(directorySvc, log),
		positionhandler.New(positionSvc, log),
		analyticshandler.New(pub, analyticsSvc, log),
		reviewhandler.New(reviewSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sweeper.Start(ctx, cfg.SweepSchedule)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := ingest.NewConsumer(cfg.Kafka, pipeline,
			ingest.WithConsumerLogger(log))
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer consumer.Close()
			log.Info("kafka consumer started",
				"topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group)
			err := consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if cfg.ProviderBaseURL != "" {
		client, err := ingest.NewClient(cfg.ProviderBaseURL, cfg.ProviderRPS,
			ingest.WithClientLogger(log),
			ingest.WithClientMetrics(ingestMx))
		if err != nil {
			return err
		}
		g.Go(func() error {
			log.Info("provider backfill started", "base_url", cfg.ProviderBaseURL)
			if err := pipeline.Backfill(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
				// Backfill failures degrade freshness, not availability.
				log.Error("provider backfill failed", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func loadHierarchy(path string) (*jurisdiction.Hierarchy, error) {
	if path == "" {
		return jurisdiction.New(nil, nil), nil
	}
	return jurisdiction.Load(path)
}
