package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tarabot/internal/bot"
	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
	"github.com/iamwavecut/tarabot/internal/notify"
	"github.com/iamwavecut/tarabot/internal/policy/permissions"
)

const (
	pendingSweepInterval = time.Minute
	historyReplyLimit    = 30
)

type adminStore interface {
	RegisterGroup(ctx context.Context, groupID int64) (bool, error)
	GetGroup(ctx context.Context, groupID int64) (*db.Group, error)
	SetGroupTitle(ctx context.Context, groupID int64, title string) error
	SetGroupModeration(ctx context.Context, groupID int64, enabled bool) error
	ListGroups(ctx context.Context) ([]*db.Group, error)

	LinkReviewer(ctx context.Context, reviewerID, groupID int64) error
	UnlinkReviewer(ctx context.Context, reviewerID, groupID int64) (int64, error)
	GroupsForReviewer(ctx context.Context, reviewerID int64) ([]int64, error)

	AddGlobalReviewer(ctx context.Context, userID int64) error
	RemoveGlobalReviewer(ctx context.Context, userID int64) error
	AddNormalReviewer(ctx context.Context, userID int64) error
	RemoveNormalReviewer(ctx context.Context, userID int64) error
}

type Ledger interface {
	GetCount(ctx context.Context, userID int64) (int, error)
	SetCount(ctx context.Context, userID int64, value int) error
	History(ctx context.Context, filter db.HistoryFilter) ([]*db.WarningEntry, error)
}

type RoleResolver interface {
	Resolve(ctx context.Context, userID int64) (permissions.Capability, error)
}

// Admin serves the private-chat administration commands.
type Admin struct {
	store    adminStore
	ledger   Ledger
	resolver RoleResolver
	notifier notify.Notifier
	pending  *pendingActions

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

type Option func(*Admin)

// WithClock replaces time.Now for pending-action expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Admin) {
		a.pending.now = now
	}
}

func NewAdmin(s bot.Service, ledger Ledger, resolver RoleResolver, notifier notify.Notifier, pendingTTL time.Duration, opts ...Option) *Admin {
	return newAdmin(s.GetDB(), ledger, resolver, notifier, pendingTTL, opts...)
}

func newAdmin(store adminStore, ledger Ledger, resolver RoleResolver, notifier notify.Notifier, pendingTTL time.Duration, opts ...Option) *Admin {
	a := &Admin{
		store:    store,
		ledger:   ledger,
		resolver: resolver,
		notifier: notifier,
		pending:  newPendingActions(pendingTTL, time.Now),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.getLogEntry().WithField("method", "NewAdmin").Debug("created new admin handler")
	return a
}

func (a *Admin) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.startPendingSweep(runCtx)
	a.started = true
	return nil
}

func (a *Admin) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (a *Admin) startPendingSweep(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(pendingSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := a.pending.sweep(); removed > 0 {
					a.getLogEntry().WithField("removed", removed).Debug("expired pending actions dropped")
				}
			}
		}
	}()
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	entry := a.getLogEntry().WithField("method", "Handle")

	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	if !chat.IsPrivate() {
		return true, nil
	}

	caps, err := a.resolver.Resolve(ctx, user.ID)
	if err != nil {
		return false, errors.WithMessage(err, "resolve capabilities")
	}

	msg := u.Message
	if !msg.IsCommand() {
		if !caps.Has(permissions.SuperAdmin) {
			return true, nil
		}
		return a.handlePendingInput(ctx, msg, user)
	}

	cmd, ok := commands[msg.Command()]
	if !ok {
		entry.Debugf("unknown command: %s", msg.Command())
		return true, nil
	}
	if !caps.Any(cmd.requires) {
		entry.WithField("user_id", user.ID).Debugf("unauthorized command: %s", msg.Command())
		a.reply(ctx, chat.ID, "You are not authorized to use this command.")
		return false, nil
	}

	args := strings.Fields(msg.CommandArguments())
	text, err := cmd.run(ctx, a, invocation{caps: caps, user: user, args: args})
	switch {
	case err == nil:
		a.reply(ctx, chat.ID, text)
		return false, nil
	case errors.Is(err, errs.ErrInvalidArgument):
		entry.WithField("error", err.Error()).Debug("invalid command arguments")
		a.reply(ctx, chat.ID, err.Error()+"\nUsage: "+cmd.usage)
		return false, nil
	case errors.Is(err, errs.ErrNotFound):
		a.reply(ctx, chat.ID, err.Error())
		return false, nil
	default:
		a.reply(ctx, chat.ID, "Something went wrong, nothing was changed. Try again later.")
		return false, errors.WithMessagef(err, "command /%s", msg.Command())
	}
}

// handlePendingInput completes a two-step command with the admin's next plain message.
func (a *Admin) handlePendingInput(ctx context.Context, msg *api.Message, user *api.User) (bool, error) {
	action, ok := a.pending.take(user.ID)
	if !ok {
		return true, nil
	}

	switch action.Kind {
	case pendingGroupTitle:
		title := strings.TrimSpace(msg.Text)
		if title == "" {
			a.pending.put(user.ID, action.Kind, action.GroupID)
			a.reply(ctx, msg.Chat.ID, "The group name cannot be empty. Send it again or /cancel.")
			return false, nil
		}
		if err := a.store.SetGroupTitle(ctx, action.GroupID, title); err != nil {
			a.reply(ctx, msg.Chat.ID, "Could not save the group name.")
			return false, errors.WithMessage(err, "set pending group title")
		}
		a.reply(ctx, msg.Chat.ID, "Group "+formatID(action.GroupID)+" is now named \""+title+"\".")
	}
	return false, nil
}

func (a *Admin) reply(ctx context.Context, chatID int64, text string) {
	if err := a.notifier.SendTo(ctx, chatID, text, ""); err != nil {
		a.getLogEntry().WithFields(log.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		}).Warn("cant send reply")
	}
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("object", "Admin")
}
