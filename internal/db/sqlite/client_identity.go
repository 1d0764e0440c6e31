package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
)

func (c *sqliteClient) UpsertUser(ctx context.Context, user *db.UserIdentity) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	row := *user
	if row.UpdatedAt == "" {
		row.UpdatedAt = db.FormatTimestamp(time.Now())
	}
	query := `
		INSERT INTO users (id, first_name, last_name, username, updated_at)
		VALUES (:id, :first_name, :last_name, :username, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		username = excluded.username,
		updated_at = excluded.updated_at
	`
	return errs.Storage("upsert user", tool.Err(c.db.NamedExecContext(ctx, query, &row)))
}

func (c *sqliteClient) GetUser(ctx context.Context, userID int64) (*db.UserIdentity, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	user := &db.UserIdentity{}
	err := c.db.GetContext(ctx, user, `
		SELECT id, first_name, last_name, username, updated_at
		FROM users
		WHERE id = ?
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("get user", err)
	}
	return user, nil
}
