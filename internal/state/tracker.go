package state

import (
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Transition is an observed status flip for one (target, check type) key.
type Transition struct {
	From domain.Status
	To   domain.Status
}

// Tracker remembers the last status seen per (target, check type) and
// reports flips. State lives only in memory: after a restart the first
// observation of every key is a baseline, never a transition, so a
// restart can't replay notifications.
type Tracker struct {
	mu   sync.Mutex
	last map[key]domain.Status
}

type key struct {
	targetID  string
	checkType domain.CheckType
}

func New() *Tracker {
	return &Tracker{last: make(map[key]domain.Status)}
}

// Observe records status for the key and reports whether it differs
// from the previous observation. Compare-and-set runs under one lock,
// so two racing observers of the same flip get at most one transition
// between them.
func (tr *Tracker) Observe(targetID string, ct domain.CheckType, s domain.Status) (Transition, bool) {
	k := key{targetID: targetID, checkType: ct}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	prev, seen := tr.last[k]
	tr.last[k] = s
	if !seen || prev == s {
		return Transition{}, false
	}
	return Transition{From: prev, To: s}, true
}

// Purge drops every entry for the target, across all check types.
func (tr *Tracker) Purge(targetID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for k := range tr.last {
		if k.targetID == targetID {
			delete(tr.last, k)
		}
	}
}

// Len reports how many keys are tracked.
func (tr *Tracker) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.last)
}
