package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	errs "github.com/iamwavecut/tarabot/internal/errors"
)

// Sender is the part of *api.BotAPI the notifier needs.
type Sender interface {
	Send(c api.Chattable) (api.Message, error)
}

type Telegram struct {
	bot Sender
}

func NewTelegram(bot Sender) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) SendDirect(ctx context.Context, userID int64, text string, parseMode string) error {
	return t.send(ctx, userID, text, parseMode)
}

func (t *Telegram) SendTo(ctx context.Context, recipientID int64, text string, parseMode string) error {
	return t.send(ctx, recipientID, text, parseMode)
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string, parseMode string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errs.ErrDeliveryFailed, ctx.Err())
	default:
	}

	msg := api.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.LinkPreviewOptions.IsDisabled = true

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errs.ErrDeliveryFailed, ctx.Err())
	case err := <-done:
		return classifySendError(err)
	}
}

var unreachableMarkers = []string{
	"bot was blocked by the user",
	"bot can't initiate conversation",
	"user is deactivated",
	"chat not found",
	"forbidden",
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var tgErr *api.Error
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", errs.ErrRecipientUnreachable, err)
	}
	text := strings.ToLower(err.Error())
	for _, marker := range unreachableMarkers {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %w", errs.ErrRecipientUnreachable, err)
		}
	}
	return fmt.Errorf("%w: %w", errs.ErrDeliveryFailed, err)
}
