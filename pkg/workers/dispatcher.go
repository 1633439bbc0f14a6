package workers

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

type Handler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

// dispatcher handles every update in its own goroutine and can wait for all of them.
type dispatcher struct {
	handler Handler
	wg      sync.WaitGroup
}

func (d *dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx := logger.ContextWithRequestID(ctx, update.UpdateID)
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "Panic while handling update", "panic", r)
			}
		}()

		d.handler.HandleUpdate(ctx, &update)
	}()
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}
