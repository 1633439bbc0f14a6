package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

const maxFileSize = 20 << 20

type client struct {
	token string
	bot   *tgbotapi.BotAPI
}

func NewClient(token string) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("Authorized on telegram", "account", bot.Self.UserName)

	return &client{
		token: token,
		bot:   bot,
	}, nil
}

// Updates starts long polling. Any registered webhook is removed first, otherwise
// Telegram refuses getUpdates.
func (c *client) Updates() (tgbotapi.UpdatesChannel, error) {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("deleting webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return c.bot.GetUpdatesChan(u), nil
}

func (c *client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("creating webhook config: %w", err)
	}
	wh.DropPendingUpdates = true

	if _, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}

	return nil
}

// ParseUpdate decodes an update pushed by Telegram to the webhook.
func (c *client) ParseUpdate(r *http.Request) (*tgbotapi.Update, error) {
	update, err := c.bot.HandleUpdate(r)
	if err != nil {
		return nil, fmt.Errorf("decoding update: %w", err)
	}
	return update, nil
}

func (c *client) Token() string {
	return c.token
}

func (c *client) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		slog.ErrorContext(ctx, "Sending message", "chatID", chatID, logger.Err(err))
		return 0, fmt.Errorf("sending message: %w", err)
	}
	return msg.MessageID, nil
}

func (c *client) SendWithKeyboard(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard()

	if _, err := c.bot.Send(msg); err != nil {
		slog.ErrorContext(ctx, "Sending message with keyboard", "chatID", chatID, logger.Err(err))
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (c *client) EditMessage(_ context.Context, chatID int64, messageID int, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("editing message: %w", err)
	}
	return nil
}

func (c *client) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

func (c *client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.token), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.bot.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "Closing body", logger.Err(closeErr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	slog.DebugContext(ctx, "File downloaded", "path", file.FilePath, "size", len(data))

	return data, nil
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(domain.StatsButton),
			tgbotapi.NewKeyboardButton(domain.HelpButton),
		),
	)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = domain.InputPlaceholder
	return kb
}
