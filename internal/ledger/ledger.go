// Package ledger keeps per-user warning counts and their append-only history.
//
// Every mutation for a user goes through a per-user lock, so concurrent
// violations from the same user are applied one after another while other
// users proceed in parallel. Administrative overwrites (SetCount) are logged
// to history with no group and are allowed to break the "+1 per violation"
// chain.
package ledger

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
)

var tracer = otel.Tracer("github.com/iamwavecut/tarabot/internal/ledger")

type Ledger struct {
	store db.WarningStore
	locks *userLocks
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(store db.WarningStore, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		locks: newUserLocks(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetCount returns the stored count, 0 for users without a record.
func (l *Ledger) GetCount(ctx context.Context, userID int64) (int, error) {
	return l.store.GetWarningCount(ctx, userID)
}

// SetCount overwrites the count. Negative values are rejected before any write.
func (l *Ledger) SetCount(ctx context.Context, userID int64, value int) error {
	if value < 0 {
		return errs.InvalidArgument("warning count must be >= 0, got %d", value)
	}

	ctx, span := tracer.Start(ctx, "ledger.SetCount")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Int("value", value))

	unlock := l.locks.lock(userID)
	defer unlock()

	if err := l.store.SetWarningCount(ctx, userID, value, l.now().UTC()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	l.getLogEntry().WithFields(log.Fields{
		"user_id": userID,
		"value":   value,
	}).Info("warning count overwritten")
	return nil
}

// Increment adds one warning for userID in groupID and returns the new count.
func (l *Ledger) Increment(ctx context.Context, userID int64, groupID int64) (int, error) {
	ctx, span := tracer.Start(ctx, "ledger.Increment")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Int64("group_id", groupID))

	unlock := l.locks.lock(userID)
	defer unlock()

	count, err := l.store.IncrementWarningCount(ctx, userID, groupID, l.now().UTC())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("count", count))
	return count, nil
}

// History returns entries in append order. A nil filter.GroupIDs means global.
func (l *Ledger) History(ctx context.Context, filter db.HistoryFilter) ([]*db.WarningEntry, error) {
	return l.store.ListWarningHistory(ctx, filter)
}

func (l *Ledger) getLogEntry() *log.Entry {
	return log.WithField("object", "Ledger")
}
