package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/tarabot/internal/db"
)

type ServiceBot interface {
	GetBot() *api.BotAPI
}

type ServiceDB interface {
	GetDB() db.Client
}

// Service bundles the Telegram client and the store for handlers.
type Service interface {
	ServiceBot
	ServiceDB
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Handler is one step of the update chain. Returning proceed=false stops the chain.
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}

// Requester is the part of *api.BotAPI used for fire-and-forget API calls.
type Requester interface {
	Request(c api.Chattable) (*api.APIResponse, error)
}

// UpdatesSource is the part of *api.BotAPI used for long polling.
type UpdatesSource interface {
	GetUpdates(config api.UpdateConfig) ([]api.Update, error)
}
