package permissions

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Capability is a set of roles held by one Telegram user.
type Capability uint8

const (
	SuperAdmin Capability = 1 << iota
	GlobalReviewer
	ScopedReviewer

	None Capability = 0
	all             = SuperAdmin | GlobalReviewer | ScopedReviewer
)

func (c Capability) Has(other Capability) bool {
	return other != None && c&other == other
}

// Any reports whether c shares at least one role with other.
func (c Capability) Any(other Capability) bool {
	return c&other != 0
}

func (c Capability) String() string {
	if c == None {
		return "none"
	}
	var parts []string
	if c.Has(SuperAdmin) {
		parts = append(parts, "super_admin")
	}
	if c.Has(GlobalReviewer) {
		parts = append(parts, "global_reviewer")
	}
	if c.Has(ScopedReviewer) {
		parts = append(parts, "scoped_reviewer")
	}
	return strings.Join(parts, "|")
}

type AllowLists interface {
	IsGlobalReviewer(ctx context.Context, userID int64) (bool, error)
	IsNormalReviewer(ctx context.Context, userID int64) (bool, error)
}

type Resolver struct {
	superAdminID int64
	lists        AllowLists
}

func NewResolver(superAdminID int64, lists AllowLists) *Resolver {
	return &Resolver{superAdminID: superAdminID, lists: lists}
}

// Resolve returns every capability userID holds. The super-admin holds all of them.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (Capability, error) {
	if userID != 0 && userID == r.superAdminID {
		return all, nil
	}

	caps := None
	global, err := r.lists.IsGlobalReviewer(ctx, userID)
	if err != nil {
		return None, errors.WithMessage(err, "resolve global reviewer")
	}
	if global {
		caps |= GlobalReviewer
	}
	normal, err := r.lists.IsNormalReviewer(ctx, userID)
	if err != nil {
		return None, errors.WithMessage(err, "resolve reviewer")
	}
	if normal {
		caps |= ScopedReviewer
	}
	return caps, nil
}
