package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/api"
	"github.com/snarg/callengine/internal/audiostore"
	"github.com/snarg/callengine/internal/classifier"
	"github.com/snarg/callengine/internal/config"
	"github.com/snarg/callengine/internal/database"
	"github.com/snarg/callengine/internal/jobqueue"
	"github.com/snarg/callengine/internal/orchestrator"
	"github.com/snarg/callengine/internal/phrasecache"
	"github.com/snarg/callengine/internal/responder"
	"github.com/snarg/callengine/internal/stt"
	"github.com/snarg/callengine/internal/telephony"
	"github.com/snarg/callengine/internal/tts"
)

// version, commit, and buildTime are injected at build time via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var overrides config.Overrides
	var showVersion bool
	flagSet(&overrides, &showVersion)

	if showVersion {
		fmt.Printf("%s (commit=%s, built=%s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", buildTime).
		Str("log_level", level.String()).
		Msg("callengine starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.MongoDBURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx, database.SchemaSQL); err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	store, pruner, err := audiostore.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio storage")
	}
	pruner.Start()
	defer pruner.Stop()
	log.Info().Str("type", store.Type()).Msg("audio storage initialized")

	cache := phrasecache.New(store, 256)

	sttLog := log.With().Str("component", "stt").Logger()
	sttProvider, err := stt.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize STT provider")
	}
	sttLog.Info().Str("provider", sttProvider.Name()).Msg("stt provider initialized")

	ttsEngine := tts.New(cfg, store, cache, log)

	classifierLog := log.With().Str("component", "classifier").Logger()
	intentClassifier := classifier.New(cfg.OpenAIAPIKey, cfg.GPTModel, cfg.ResponseSoftTimeout, classifierLog)

	responderLog := log.With().Str("component", "responder").Logger()
	generator := responder.New(cfg.OpenAIAPIKey, cfg.GPTModel, cfg.GPTMaxResponseTokens, cfg.ResponseSoftTimeout, responderLog)

	telephonyLog := log.With().Str("component", "telephony").Logger()
	telephonyClient := telephony.New(cfg, telephonyLog)
	markup := telephony.NewBuilder(cfg.ServerURL)

	queueLog := log.With().Str("component", "jobqueue").Logger()
	queue, err := jobqueue.New(jobqueue.Config{
		RedisURL:   cfg.RedisURL,
		STTWorkers: cfg.STTWorkers,
		LLMWorkers: cfg.LLMWorkers,
		TTSWorkers: cfg.TTSWorkers,
	}, queueLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize job queue")
	}

	orch := orchestrator.New(orchestrator.Deps{
		DB:         db,
		Store:      store,
		Cache:      cache,
		TTS:        ttsEngine,
		STT:        sttProvider,
		Classifier: intentClassifier,
		Generator:  generator,
		Telephony:  telephonyClient,
		Markup:     markup,
		Config:     cfg,
		Queue:      queue,
		Log:        log,
	})
	orch.RegisterQueueHandlers()

	if err := queue.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start job queue workers")
	}

	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(api.ServerOptions{
		Config:    cfg,
		DB:        db,
		Queue:     queue,
		Orch:      orch,
		Version:   fmt.Sprintf("%s (commit=%s, built=%s)", version, commit, buildTime),
		StartTime: startTime,
		Log:       httpLog,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Info().
		Str("listen", cfg.HTTPAddr).
		Str("version", version).
		Dur("startup_ms", time.Since(startTime)).
		Msg("callengine ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// 45s teardown grace plus its 20s extension, matching the longest
	// in-flight call teardown the orchestrator itself might still be
	// running when the signal arrives.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TeardownGrace+cfg.TeardownGraceExtension)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	queue.Shutdown()

	log.Info().Msg("callengine stopped")
}
