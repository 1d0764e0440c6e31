package db

import (
	"context"
	"time"
)

type IdentityStore interface {
	UpsertUser(ctx context.Context, user *UserIdentity) error
	GetUser(ctx context.Context, userID int64) (*UserIdentity, error)
}

type GroupRegistry interface {
	RegisterGroup(ctx context.Context, groupID int64) (created bool, err error)
	GetGroup(ctx context.Context, groupID int64) (*Group, error)
	IsGroupMonitored(ctx context.Context, groupID int64) (bool, error)
	SetGroupTitle(ctx context.Context, groupID int64, title string) error
	SetGroupModeration(ctx context.Context, groupID int64, enabled bool) error
	ListGroups(ctx context.Context) ([]*Group, error)
}

type ReviewerDirectory interface {
	LinkReviewer(ctx context.Context, reviewerID, groupID int64) error
	UnlinkReviewer(ctx context.Context, reviewerID, groupID int64) (int64, error)
	ReviewersFor(ctx context.Context, groupID int64) ([]int64, error)
	GroupsForReviewer(ctx context.Context, reviewerID int64) ([]int64, error)

	AddGlobalReviewer(ctx context.Context, userID int64) error
	RemoveGlobalReviewer(ctx context.Context, userID int64) error
	IsGlobalReviewer(ctx context.Context, userID int64) (bool, error)
	AddNormalReviewer(ctx context.Context, userID int64) error
	RemoveNormalReviewer(ctx context.Context, userID int64) error
	IsNormalReviewer(ctx context.Context, userID int64) (bool, error)
}

// WarningStore owns the count and history tables. Only the ledger calls it.
type WarningStore interface {
	GetWarningCount(ctx context.Context, userID int64) (int, error)
	SetWarningCount(ctx context.Context, userID int64, value int, at time.Time) error
	IncrementWarningCount(ctx context.Context, userID int64, groupID int64, at time.Time) (int, error)
	ListWarningHistory(ctx context.Context, filter HistoryFilter) ([]*WarningEntry, error)
}

type Client interface {
	IdentityStore
	GroupRegistry
	ReviewerDirectory
	WarningStore
	Close() error
}
