package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tarabot/internal/bot"
	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/moderation"
)

type Engine interface {
	HandleMessage(ctx context.Context, msg moderation.Message) (*moderation.Incident, error)
}

type moderatorStore interface {
	GetGroup(ctx context.Context, groupID int64) (*db.Group, error)
}

type messageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Moderator feeds group messages to the escalation engine and removes flagged
// messages in groups that have deletion switched on.
type Moderator struct {
	engine  Engine
	store   moderatorStore
	deleter messageDeleter
}

func NewModerator(s bot.Service, engine Engine) *Moderator {
	return &Moderator{
		engine:  engine,
		store:   s.GetDB(),
		deleter: s,
	}
}

func (m *Moderator) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return true, nil
	}
	if user.IsBot {
		return true, nil
	}

	incident, err := m.engine.HandleMessage(ctx, moderation.Message{
		GroupID:   chat.ID,
		MessageID: u.Message.MessageID,
		Sender: db.UserIdentity{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			UserName:  user.UserName,
		},
		Text: bot.ExtractText(u.Message),
	})
	if incident == nil {
		return err == nil, err
	}

	m.deleteIfEnabled(ctx, incident)
	return false, err
}

func (m *Moderator) deleteIfEnabled(ctx context.Context, incident *moderation.Incident) {
	entry := m.getLogEntry().WithFields(log.Fields{
		"incident": incident.ID,
		"group_id": incident.GroupID,
	})

	group, err := m.store.GetGroup(ctx, incident.GroupID)
	if err != nil {
		entry.WithField("error", err.Error()).Error("cant load group")
		return
	}
	if group == nil || !group.ModerationEnabled {
		return
	}
	if err := m.deleter.DeleteMessage(ctx, incident.GroupID, incident.MessageID); err != nil {
		entry.WithField("error", err.Error()).Warn("cant delete violating message")
		return
	}
	entry.Debug("violating message deleted")
}

func (m *Moderator) getLogEntry() *log.Entry {
	return log.WithField("object", "Moderator")
}
