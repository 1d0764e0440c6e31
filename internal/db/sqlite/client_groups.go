package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
)

func (c *sqliteClient) RegisterGroup(ctx context.Context, groupID int64) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_groups (id, created_at) VALUES (?, ?)`,
		groupID, db.FormatTimestamp(time.Now()),
	)
	if err != nil {
		return false, errs.Storage("register group", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Storage("register group", err)
	}
	return n > 0, nil
}

func (c *sqliteClient) GetGroup(ctx context.Context, groupID int64) (*db.Group, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	group := &db.Group{}
	err := c.db.GetContext(ctx, group, `
		SELECT id, title, moderation_enabled, created_at
		FROM chat_groups
		WHERE id = ?
	`, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("get group", err)
	}
	return group, nil
}

func (c *sqliteClient) IsGroupMonitored(ctx context.Context, groupID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	if err := c.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_groups WHERE id = ?`, groupID); err != nil {
		return false, errs.Storage("check group", err)
	}
	return count > 0, nil
}

func (c *sqliteClient) SetGroupTitle(ctx context.Context, groupID int64, title string) error {
	return c.updateGroup(ctx, "set group title", `UPDATE chat_groups SET title = ? WHERE id = ?`, title, groupID)
}

func (c *sqliteClient) SetGroupModeration(ctx context.Context, groupID int64, enabled bool) error {
	return c.updateGroup(ctx, "set group moderation", `UPDATE chat_groups SET moderation_enabled = ? WHERE id = ?`, enabled, groupID)
}

func (c *sqliteClient) updateGroup(ctx context.Context, op string, query string, value any, groupID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, query, value, groupID)
	if err != nil {
		return errs.Storage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Storage(op, err)
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", groupID, errs.ErrNotFound)
	}
	return nil
}

func (c *sqliteClient) ListGroups(ctx context.Context) ([]*db.Group, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var groups []*db.Group
	if err := c.db.SelectContext(ctx, &groups, `
		SELECT id, title, moderation_enabled, created_at
		FROM chat_groups
		ORDER BY id ASC
	`); err != nil {
		return nil, errs.Storage("list groups", err)
	}
	return groups, nil
}
