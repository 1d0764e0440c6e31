package handlers

import (
	"context"
	"errors"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/moderation"
)

type engineStub struct {
	got      []moderation.Message
	incident *moderation.Incident
	err      error
}

func (e *engineStub) HandleMessage(_ context.Context, msg moderation.Message) (*moderation.Incident, error) {
	e.got = append(e.got, msg)
	return e.incident, e.err
}

type groupStoreStub struct {
	group *db.Group
}

func (s groupStoreStub) GetGroup(_ context.Context, _ int64) (*db.Group, error) {
	return s.group, nil
}

type deleterStub struct {
	deleted []int
}

func (d *deleterStub) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	d.deleted = append(d.deleted, messageID)
	return nil
}

func groupUpdate(chatType string) (*api.Update, *api.Chat, *api.User) {
	chat := &api.Chat{ID: 100, Type: chatType}
	user := &api.User{ID: 42, FirstName: "Ali", UserName: "ali"}
	u := &api.Update{Message: &api.Message{
		MessageID: 9,
		Chat:      *chat,
		From:      user,
		Text:      "مرحبا",
		Caption:   "caption",
	}}
	return u, chat, user
}

func TestModeratorBuildsMessage(t *testing.T) {
	t.Parallel()

	engine := &engineStub{}
	m := &Moderator{engine: engine, store: groupStoreStub{}, deleter: &deleterStub{}}
	u, chat, user := groupUpdate("supergroup")

	proceed, err := m.Handle(context.Background(), u, chat, user)
	if err != nil || !proceed {
		t.Fatalf("clean result must proceed: %v %v", proceed, err)
	}
	got := engine.got[0]
	if got.GroupID != 100 || got.MessageID != 9 || got.Sender.ID != 42 || got.Sender.UserName != "ali" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Text != "مرحبا caption" {
		t.Fatalf("text and caption must both be checked, got %q", got.Text)
	}
}

func TestModeratorIgnoresPrivateChatsAndBots(t *testing.T) {
	t.Parallel()

	engine := &engineStub{}
	m := &Moderator{engine: engine, store: groupStoreStub{}, deleter: &deleterStub{}}

	u, chat, user := groupUpdate("private")
	if proceed, _ := m.Handle(context.Background(), u, chat, user); !proceed {
		t.Fatalf("private chat must pass through")
	}
	u, chat, user = groupUpdate("group")
	user.IsBot = true
	if proceed, _ := m.Handle(context.Background(), u, chat, user); !proceed {
		t.Fatalf("bot message must pass through")
	}
	if len(engine.got) != 0 {
		t.Fatalf("engine must not be called, got %d calls", len(engine.got))
	}
}

func TestModeratorDeletesOnlyWhenEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		group       *db.Group
		wantDeleted int
	}{
		{name: "enabled", group: &db.Group{ID: 100, ModerationEnabled: true}, wantDeleted: 1},
		{name: "disabled", group: &db.Group{ID: 100}, wantDeleted: 0},
		{name: "missing", group: nil, wantDeleted: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deleter := &deleterStub{}
			engine := &engineStub{incident: &moderation.Incident{ID: "x", GroupID: 100, MessageID: 9, Count: 1}}
			m := &Moderator{engine: engine, store: groupStoreStub{group: tt.group}, deleter: deleter}
			u, chat, user := groupUpdate("group")

			proceed, err := m.Handle(context.Background(), u, chat, user)
			if err != nil || proceed {
				t.Fatalf("violation must stop the chain: %v %v", proceed, err)
			}
			if len(deleter.deleted) != tt.wantDeleted {
				t.Fatalf("deleted %v, want %d", deleter.deleted, tt.wantDeleted)
			}
		})
	}
}

func TestModeratorPropagatesEngineError(t *testing.T) {
	t.Parallel()

	want := errors.New("ledger down")
	m := &Moderator{engine: &engineStub{err: want}, store: groupStoreStub{}, deleter: &deleterStub{}}
	u, chat, user := groupUpdate("group")

	if _, err := m.Handle(context.Background(), u, chat, user); !errors.Is(err, want) {
		t.Fatalf("expected engine error, got %v", err)
	}
}
