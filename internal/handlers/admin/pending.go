package handlers

import (
	"sync"
	"time"
)

type pendingKind string

const pendingGroupTitle pendingKind = "group_title"

// pendingAction is one admin's in-flight two-step command.
type pendingAction struct {
	Kind      pendingKind
	GroupID   int64
	ExpiresAt time.Time
}

// pendingActions keeps at most one pending action per admin. Expired records
// are never returned and are dropped by sweep.
type pendingActions struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[int64]pendingAction
}

func newPendingActions(ttl time.Duration, now func() time.Time) *pendingActions {
	return &pendingActions{
		ttl:   ttl,
		now:   now,
		items: make(map[int64]pendingAction),
	}
}

// put replaces whatever adminID had pending.
func (p *pendingActions) put(adminID int64, kind pendingKind, groupID int64) pendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	action := pendingAction{
		Kind:      kind,
		GroupID:   groupID,
		ExpiresAt: p.now().Add(p.ttl),
	}
	p.items[adminID] = action
	return action
}

// take removes and returns the live action for adminID.
func (p *pendingActions) take(adminID int64) (pendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	action, ok := p.items[adminID]
	if !ok {
		return pendingAction{}, false
	}
	delete(p.items, adminID)
	if !p.now().Before(action.ExpiresAt) {
		return pendingAction{}, false
	}
	return action, true
}

func (p *pendingActions) drop(adminID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	action, ok := p.items[adminID]
	delete(p.items, adminID)
	return ok && p.now().Before(action.ExpiresAt)
}

func (p *pendingActions) sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	removed := 0
	for adminID, action := range p.items {
		if !now.Before(action.ExpiresAt) {
			delete(p.items, adminID)
			removed++
		}
	}
	return removed
}

func (p *pendingActions) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
