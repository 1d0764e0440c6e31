package db

import (
	"strings"
	"time"
)

// TimestampLayout is the on-disk layout of every timestamp column, always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	displayNamePlaceholder = "N/A"
	handlePlaceholder      = "NoUsername"
)

type (
	UserIdentity struct {
		ID        int64  `db:"id"`
		FirstName string `db:"first_name"`
		LastName  string `db:"last_name"`
		UserName  string `db:"username"`
		UpdatedAt string `db:"updated_at"`
	}

	Group struct {
		ID                int64  `db:"id"`
		Title             string `db:"title"`
		ModerationEnabled bool   `db:"moderation_enabled"`
		CreatedAt         string `db:"created_at"`
	}

	ReviewerLink struct {
		ReviewerID int64 `db:"reviewer_id"`
		GroupID    int64 `db:"group_id"`
	}

	WarningCount struct {
		UserID int64 `db:"user_id"`
		Count  int   `db:"count"`
	}

	// WarningEntry is one append-only history row. GroupID is nil for
	// administrative overwrites.
	WarningEntry struct {
		ID            int64  `db:"id"`
		UserID        int64  `db:"user_id"`
		WarningNumber int    `db:"warning_number"`
		Timestamp     string `db:"timestamp"`
		GroupID       *int64 `db:"group_id"`
	}

	HistoryFilter struct {
		UserID *int64
		// GroupIDs restricts the result to rows tagged with one of these groups.
		// nil means no restriction; an empty non-nil slice matches nothing.
		GroupIDs []int64
		Limit    int
	}
)

// FormatTimestamp renders t in the storage layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DisplayName joins first and last name, falling back to "N/A".
func (u *UserIdentity) DisplayName() string {
	if u == nil {
		return displayNamePlaceholder
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return displayNamePlaceholder
	}
	return name
}

// Handle returns "@username" or "NoUsername".
func (u *UserIdentity) Handle() string {
	if u == nil || strings.TrimSpace(u.UserName) == "" {
		return handlePlaceholder
	}
	return "@" + strings.TrimPrefix(u.UserName, "@")
}

func (e *WarningEntry) Time() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, e.Timestamp, time.UTC)
}

// IsOverride reports whether the row was written by an administrative overwrite.
func (e *WarningEntry) IsOverride() bool {
	return e.GroupID == nil
}
