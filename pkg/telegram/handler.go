package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
	"github.com/dskvich/homework-solver-bot/pkg/pipeline"
)

type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	SendWithKeyboard(ctx context.Context, chatID int64, text string) error
}

type TaskHandler interface {
	Handle(ctx context.Context, task *domain.Task) pipeline.Outcome
}

type UserRegistry interface {
	GetOrCreate(ctx context.Context, s domain.Submitter) (int64, error)
}

type StatsProvider interface {
	CountByExternalID(ctx context.Context, externalID int64) (domain.Stats, error)
}

type handler struct {
	messenger Messenger
	tasks     TaskHandler
	users     UserRegistry
	stats     StatsProvider
}

func NewHandler(
	messenger Messenger,
	tasks TaskHandler,
	users UserRegistry,
	stats StatsProvider,
) *handler {
	return &handler{
		messenger: messenger,
		tasks:     tasks,
		users:     users,
		stats:     stats,
	}
}

func (h *handler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		slog.DebugContext(ctx, "Skipping update without message")
		return
	}

	submitter := submitterOf(msg)
	slog.InfoContext(ctx, "Processing message",
		"chatID", submitter.ChatID,
		"user", lo.CoalesceOrEmpty(submitter.Username, submitter.FirstName),
	)

	switch {
	case msg.IsCommand():
		h.handleCommand(ctx, submitter, msg.Command())

	case len(msg.Photo) > 0:
		largest := lo.MaxBy(msg.Photo, func(a, b tgbotapi.PhotoSize) bool {
			return a.Width*a.Height > b.Width*b.Height
		})
		h.tasks.Handle(ctx, domain.NewImageTask(submitter, largest.FileID))

	case msg.Document != nil:
		if strings.HasPrefix(msg.Document.MimeType, "image/") {
			h.tasks.Handle(ctx, domain.NewImageTask(submitter, msg.Document.FileID))
			return
		}
		h.reply(ctx, submitter.ChatID, domain.DocumentUnsupportedText)

	case msg.Text == domain.StatsButton:
		h.sendStats(ctx, submitter)

	case msg.Text == domain.HelpButton:
		h.reply(ctx, submitter.ChatID, domain.HelpText)

	default:
		h.tasks.Handle(ctx, domain.NewTextTask(submitter, msg.Text))
	}
}

func (h *handler) handleCommand(ctx context.Context, s domain.Submitter, cmd string) {
	switch strings.ToLower(cmd) {
	case "start":
		if _, err := h.users.GetOrCreate(ctx, s); err != nil {
			slog.ErrorContext(ctx, "Registering user", "externalID", s.ExternalID, logger.Err(err))
		}
		if err := h.messenger.SendWithKeyboard(ctx, s.ChatID, domain.WelcomeText); err != nil {
			slog.ErrorContext(ctx, "Sending welcome", logger.Err(err))
		}

	case "help":
		h.reply(ctx, s.ChatID, domain.HelpText)

	default:
		slog.WarnContext(ctx, "Unhandled command", "cmd", cmd)
		h.reply(ctx, s.ChatID, domain.UnknownCommandText)
	}
}

func (h *handler) sendStats(ctx context.Context, s domain.Submitter) {
	stats, err := h.stats.CountByExternalID(ctx, s.ExternalID)
	if err != nil {
		slog.ErrorContext(ctx, "Counting requests", "externalID", s.ExternalID, logger.Err(err))
		h.reply(ctx, s.ChatID, domain.GenericFailureText)
		return
	}

	h.reply(ctx, s.ChatID, domain.StatsText(stats))
}

func (h *handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.messenger.SendMessage(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "Sending reply", logger.Err(err))
	}
}

func submitterOf(msg *tgbotapi.Message) domain.Submitter {
	s := domain.Submitter{ChatID: msg.Chat.ID, ExternalID: msg.Chat.ID}
	if msg.From != nil {
		s.ExternalID = msg.From.ID
		s.Username = msg.From.UserName
		s.FirstName = msg.From.FirstName
	}
	return s
}
