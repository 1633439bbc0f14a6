package workers

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/homework-solver-bot/pkg/api/response"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type WebhookSource interface {
	SetWebhook(url string) error
	ParseUpdate(r *http.Request) (*tgbotapi.Update, error)
	Token() string
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

var _ Pinger = (*sql.DB)(nil)

type webhookServer struct {
	addr       string
	baseURL    string
	source     WebhookSource
	db         Pinger
	dispatcher dispatcher
}

func NewWebhookServer(addr, baseURL string, source WebhookSource, db Pinger, handler Handler) *webhookServer {
	return &webhookServer{
		addr:       addr,
		baseURL:    strings.TrimRight(baseURL, "/"),
		source:     source,
		db:         db,
		dispatcher: dispatcher{handler: handler},
	}
}

func (s *webhookServer) Name() string { return "telegram_webhook_worker" }

// WebhookPath hides the endpoint behind a hash of the bot token.
func WebhookPath(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "/webhook/" + hex.EncodeToString(sum[:8])
}

func (s *webhookServer) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", s.Name())
	defer slog.Info("Worker stopped", "name", s.Name())

	path := WebhookPath(s.source.Token())
	if err := s.source.SetWebhook(s.baseURL + path); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(ctx, path),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Webhook server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serving http: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutting down webhook server", logger.Err(err))
	}
	s.dispatcher.wait()

	return nil
}

// routes serves the webhook and the health check. Updates outlive the request, so they are
// handled with the worker context.
func (s *webhookServer) routes(ctx context.Context, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		update, err := s.source.ParseUpdate(req)
		if err != nil {
			slog.WarnContext(req.Context(), "Rejecting webhook request", logger.Err(err))
			response.WriteError(w, http.StatusBadRequest, "bad update")
			return
		}
		s.dispatcher.dispatch(ctx, *update)
		response.WriteSuccess(w, response.Status{Status: "accepted"})
	})

	return r
}

func (s *webhookServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "Health check failed", logger.Err(err))
		response.WriteError(w, http.StatusServiceUnavailable, "db: not ok")
		return
	}

	response.WriteSuccess(w, response.Status{Status: "ok"})
}
