// Package tracker remembers which documents have already been processed
// while visible, so that a document is scanned once when it appears and not
// again while it stays on screen.
package tracker

import (
	"errors"
	"fmt"
	"sort"
)

// ScanFunc processes one newly visible document.
type ScanFunc func(id string) error

// Diff is the outcome of comparing the visible set with the tracked set.
type Diff struct {
	Added     []string
	Removed   []string
	Unchanged []string
}

// Tracker holds the tracked set. It is not safe for concurrent use; the
// server only touches it from its event loop.
type Tracker struct {
	tracked map[string]struct{}
}

func New() *Tracker {
	return &Tracker{tracked: make(map[string]struct{})}
}

// Compute returns the difference between visible and the tracked set.
// Added keeps the order of visible; Removed is sorted.
func (t *Tracker) Compute(visible []string) Diff {
	var d Diff
	current := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, dup := current[id]; dup || id == "" {
			continue
		}
		current[id] = struct{}{}
		if _, ok := t.tracked[id]; ok {
			d.Unchanged = append(d.Unchanged, id)
		} else {
			d.Added = append(d.Added, id)
		}
	}
	for id := range t.tracked {
		if _, ok := current[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Removed)
	return d
}

// Update reconciles the tracked set with visible. Removed ids are dropped
// first, then every added id is scanned and becomes tracked only when its
// scan succeeds. Failed scans are joined into the returned error and retried
// on the next update that lists them.
func (t *Tracker) Update(visible []string, scan ScanFunc) (Diff, error) {
	d := t.Compute(visible)
	for _, id := range d.Removed {
		delete(t.tracked, id)
	}

	var errs []error
	for _, id := range d.Added {
		if err := scan(id); err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", id, err))
			continue
		}
		t.tracked[id] = struct{}{}
	}
	return d, errors.Join(errs...)
}

// Show marks a single document visible without affecting the others. It
// reports whether a scan ran.
func (t *Tracker) Show(id string, scan ScanFunc) (bool, error) {
	if _, ok := t.tracked[id]; ok {
		return false, nil
	}
	if err := scan(id); err != nil {
		return true, fmt.Errorf("scan %s: %w", id, err)
	}
	t.tracked[id] = struct{}{}
	return true, nil
}

// Hide forgets id, so it is scanned again the next time it becomes visible.
func (t *Tracker) Hide(id string) {
	delete(t.tracked, id)
}

func (t *Tracker) IsTracked(id string) bool {
	_, ok := t.tracked[id]
	return ok
}

// Tracked returns the tracked ids in sorted order.
func (t *Tracker) Tracked() []string {
	ids := make([]string, 0, len(t.tracked))
	for id := range t.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
