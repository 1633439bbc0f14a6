package workers

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UpdatesSource interface {
	Updates() (tgbotapi.UpdatesChannel, error)
	StopUpdates()
}

type telegramUpdateListener struct {
	source     UpdatesSource
	dispatcher dispatcher
}

func NewTelegramUpdateListener(source UpdatesSource, handler Handler) *telegramUpdateListener {
	return &telegramUpdateListener{
		source:     source,
		dispatcher: dispatcher{handler: handler},
	}
}

func (t *telegramUpdateListener) Name() string { return "telegram_listener_worker" }

func (t *telegramUpdateListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", t.Name())
	defer slog.Info("Worker stopped", "name", t.Name())

	updates, err := t.source.Updates()
	if err != nil {
		return fmt.Errorf("starting long polling: %w", err)
	}
	defer t.source.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			t.dispatcher.wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.dispatcher.wait()
				return nil
			}
			t.dispatcher.dispatch(ctx, update)
		}
	}
}
