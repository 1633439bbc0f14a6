package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dskvich/homework-solver-bot/pkg/database"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
	"github.com/dskvich/homework-solver-bot/pkg/ocr"
	"github.com/dskvich/homework-solver-bot/pkg/pipeline"
	"github.com/dskvich/homework-solver-bot/pkg/repository"
	"github.com/dskvich/homework-solver-bot/pkg/solver"
	"github.com/dskvich/homework-solver-bot/pkg/telegram"
	"github.com/dskvich/homework-solver-bot/pkg/workers"
)

type Config struct {
	TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN,required"`
	AIAPIKey         string        `env:"AI_API_KEY,required"`
	AIAPIURL         string        `env:"AI_API_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	AIModel          string        `env:"AI_MODEL" envDefault:"gpt-3.5-turbo"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MaxInputLength   int           `env:"MAX_INPUT_LENGTH" envDefault:"4000"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"4096"`
	PgURL            string        `env:"DATABASE_URL"`
	PgHost           string        `env:"DB_HOST" envDefault:"localhost:65432"`
	TesseractPath    string        `env:"TESSERACT_PATH"`
	OCRWorkers       int           `env:"OCR_WORKERS" envDefault:"2"`
	UserCacheSize    int64         `env:"USER_CACHE_SIZE" envDefault:"10000"`
	WebhookURL       string        `env:"WEBHOOK_URL"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"debug"`
	LogNoColor       bool          `env:"LOG_NO_COLOR"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg, err := parseConfig(nil)
	if err != nil {
		return err
	}

	opts, err := logger.NewOptions(cfg.LogLevel, cfg.LogNoColor)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, opts)))

	workerGroup, cleanup, err := setupWorkers(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

// parseConfig reads the config from the process environment, or from environ when it is not nil.
func parseConfig(environ map[string]string) (Config, error) {
	cfg := Config{}
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}

	if cfg.MaxInputLength <= 0 {
		return Config{}, fmt.Errorf("MAX_INPUT_LENGTH must be positive, got %d", cfg.MaxInputLength)
	}
	if cfg.MaxMessageLength <= 100 {
		return Config{}, fmt.Errorf("MAX_MESSAGE_LENGTH must be greater than 100, got %d", cfg.MaxMessageLength)
	}

	return cfg, nil
}

func setupWorkers(cfg Config) (workers.Group, func(), error) {
	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return nil, nil, fmt.Errorf("creating telegram client: %w", err)
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, nil, fmt.Errorf("creating db: %w", err)
	}

	solverClient, err := solver.NewClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, cfg.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("creating solver client: %w", err)
	}

	userRepository, err := repository.NewCachedUsers(repository.NewUserRepository(db), cfg.UserCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	requestRepository := repository.NewRequestRepository(db)

	normalizer := ocr.NewNormalizer(ocr.NewTesseract(cfg.TesseractPath), cfg.OCRWorkers)

	orchestrator := pipeline.NewOrchestrator(
		telegramClient,
		normalizer,
		solverClient,
		userRepository,
		requestRepository,
		pipeline.Limits{
			MaxInputLength:   cfg.MaxInputLength,
			MaxMessageLength: cfg.MaxMessageLength,
		},
	)

	handler := telegram.NewHandler(
		telegramClient,
		orchestrator,
		userRepository,
		requestRepository,
	)

	var worker workers.Worker
	if cfg.WebhookURL != "" {
		worker = workers.NewWebhookServer(cfg.HTTPAddr, cfg.WebhookURL, telegramClient, db, handler)
	} else {
		worker = workers.NewTelegramUpdateListener(telegramClient, handler)
	}
	slog.Info("Inbound mode selected", "worker", worker.Name())

	cleanup := func() {
		userRepository.Close()
		if err := db.Close(); err != nil {
			slog.Error("closing db", logger.Err(err))
		}
	}

	return workers.Group{worker}, cleanup, nil
}
