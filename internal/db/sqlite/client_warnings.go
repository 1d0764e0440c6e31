package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
)

func (c *sqliteClient) GetWarningCount(ctx context.Context, userID int64) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, `SELECT count FROM warning_counts WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errs.Storage("get warning count", err)
	}
	return count, nil
}

// SetWarningCount overwrites the count and records the overwrite in history
// with a NULL group.
func (c *sqliteClient) SetWarningCount(ctx context.Context, userID int64, value int, at time.Time) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.inTx(ctx, "set warning count", func(tx *sqlx.Tx) error {
		if err := upsertCount(ctx, tx, userID, value); err != nil {
			return err
		}
		return appendHistory(ctx, tx, userID, value, at, nil)
	})
}

// IncrementWarningCount reads the current count, writes count+1 and appends a
// history row tagged with groupID, all in one transaction.
func (c *sqliteClient) IncrementWarningCount(ctx context.Context, userID int64, groupID int64, at time.Time) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var next int
	err := c.inTx(ctx, "increment warning count", func(tx *sqlx.Tx) error {
		var current int
		err := tx.GetContext(ctx, &current, `SELECT count FROM warning_counts WHERE user_id = ?`, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		next = current + 1
		if err := upsertCount(ctx, tx, userID, next); err != nil {
			return err
		}
		return appendHistory(ctx, tx, userID, next, at, &groupID)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (c *sqliteClient) ListWarningHistory(ctx context.Context, filter db.HistoryFilter) ([]*db.WarningEntry, error) {
	if filter.GroupIDs != nil && len(filter.GroupIDs) == 0 {
		return []*db.WarningEntry{}, nil
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.GroupIDs != nil {
		where = append(where, "group_id IN (?)")
		args = append(args, filter.GroupIDs)
	}
	query := `SELECT id, user_id, warning_number, timestamp, group_id FROM warning_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errs.Storage("build history query", err)
	}
	entries := []*db.WarningEntry{}
	if err := c.db.SelectContext(ctx, &entries, c.db.Rebind(query), args...); err != nil {
		return nil, errs.Storage("list warning history", err)
	}
	return entries, nil
}

func (c *sqliteClient) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Storage(op, err)
	}

	rollback := true
	defer func() {
		if rollback {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.WithError(err).WithField("op", op).Error("failed to rollback transaction")
			}
		}
	}()

	if err := fn(tx); err != nil {
		return errs.Storage(op, err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Storage(op, err)
	}
	rollback = false
	return nil
}

func upsertCount(ctx context.Context, tx *sqlx.Tx, userID int64, value int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO warning_counts (user_id, count) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET count = excluded.count
	`, userID, value)
	return err
}

func appendHistory(ctx context.Context, tx *sqlx.Tx, userID int64, number int, at time.Time, groupID *int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO warning_history (user_id, warning_number, timestamp, group_id)
		VALUES (?, ?, ?, ?)
	`, userID, number, db.FormatTimestamp(at), groupID)
	return err
}
