package moderation

import (
	"context"

	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/notify"
)

type (
	GroupRegistry interface {
		IsGroupMonitored(ctx context.Context, groupID int64) (bool, error)
	}

	IdentityStore interface {
		UpsertUser(ctx context.Context, user *db.UserIdentity) error
	}

	ReviewerDirectory interface {
		ReviewersFor(ctx context.Context, groupID int64) ([]int64, error)
	}

	Ledger interface {
		Increment(ctx context.Context, userID int64, groupID int64) (int, error)
	}

	Dependencies struct {
		Groups     GroupRegistry
		Identities IdentityStore
		Reviewers  ReviewerDirectory
		Ledger     Ledger
		Notifier   notify.Notifier
	}
)
