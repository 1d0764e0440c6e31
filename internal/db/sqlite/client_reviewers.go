package sqlite

import (
	"context"
	"fmt"

	errs "github.com/iamwavecut/tarabot/internal/errors"
)

// LinkReviewer appends a link; duplicates are kept and simply mean a reviewer
// receives the same report more than once.
func (c *sqliteClient) LinkReviewer(ctx context.Context, reviewerID, groupID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO reviewer_links (reviewer_id, group_id) VALUES (?, ?)`,
		reviewerID, groupID,
	)
	return errs.Storage("link reviewer", err)
}

func (c *sqliteClient) UnlinkReviewer(ctx context.Context, reviewerID, groupID int64) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx,
		`DELETE FROM reviewer_links WHERE reviewer_id = ? AND group_id = ?`,
		reviewerID, groupID,
	)
	if err != nil {
		return 0, errs.Storage("unlink reviewer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage("unlink reviewer", err)
	}
	return n, nil
}

func (c *sqliteClient) ReviewersFor(ctx context.Context, groupID int64) ([]int64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var reviewerIDs []int64
	err := c.db.SelectContext(ctx, &reviewerIDs, `
		SELECT reviewer_id FROM reviewer_links
		WHERE group_id = ?
		ORDER BY reviewer_id ASC, id ASC
	`, groupID)
	if err != nil {
		return nil, errs.Storage("list reviewers", err)
	}
	return reviewerIDs, nil
}

func (c *sqliteClient) GroupsForReviewer(ctx context.Context, reviewerID int64) ([]int64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var groupIDs []int64
	err := c.db.SelectContext(ctx, &groupIDs, `
		SELECT DISTINCT group_id FROM reviewer_links
		WHERE reviewer_id = ?
		ORDER BY group_id ASC
	`, reviewerID)
	if err != nil {
		return nil, errs.Storage("list reviewer groups", err)
	}
	return groupIDs, nil
}

const (
	globalReviewersTable = "global_reviewers"
	normalReviewersTable = "normal_reviewers"
)

func (c *sqliteClient) AddGlobalReviewer(ctx context.Context, userID int64) error {
	return c.addToList(ctx, globalReviewersTable, userID)
}

func (c *sqliteClient) RemoveGlobalReviewer(ctx context.Context, userID int64) error {
	return c.removeFromList(ctx, globalReviewersTable, userID)
}

func (c *sqliteClient) IsGlobalReviewer(ctx context.Context, userID int64) (bool, error) {
	return c.isInList(ctx, globalReviewersTable, userID)
}

func (c *sqliteClient) AddNormalReviewer(ctx context.Context, userID int64) error {
	return c.addToList(ctx, normalReviewersTable, userID)
}

func (c *sqliteClient) RemoveNormalReviewer(ctx context.Context, userID int64) error {
	return c.removeFromList(ctx, normalReviewersTable, userID)
}

func (c *sqliteClient) IsNormalReviewer(ctx context.Context, userID int64) (bool, error) {
	return c.isInList(ctx, normalReviewersTable, userID)
}

func (c *sqliteClient) addToList(ctx context.Context, table string, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := fmt.Sprintf(`INSERT INTO %s (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`, table)
	_, err := c.db.ExecContext(ctx, query, userID)
	return errs.Storage("add to "+table, err)
}

func (c *sqliteClient) removeFromList(ctx context.Context, table string, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?`, table)
	_, err := c.db.ExecContext(ctx, query, userID)
	return errs.Storage("remove from "+table, err)
}

func (c *sqliteClient) isInList(ctx context.Context, table string, userID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ?`, table)
	if err := c.db.GetContext(ctx, &count, query, userID); err != nil {
		return false, errs.Storage("check "+table, err)
	}
	return count > 0, nil
}
