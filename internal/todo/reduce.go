// Package todo applies directive mutations to a session's task list.
package todo

import "strings"

// Change 记录一次 Reduce 实际生效的增删
// Change records what a Reduce call actually did.
type Change struct {
	Added   []string
	Removed []Removal
}

// Removal is one removal payload and the tasks it deleted.
type Removal struct {
	Pattern string
	Deleted []string
}

// Overreaching reports removals that deleted more than one task.
func (c Change) Overreaching() []Removal {
	var out []Removal
	for _, r := range c.Removed {
		if len(r.Deleted) > 1 {
			out = append(out, r)
		}
	}
	return out
}

// Reduce returns the next task list. current is never modified.
//
// Additions are appended in order unless an exact (case-sensitive) match is
// already present. Removals are then applied one after another: each drops
// every task whose lower-cased text contains the lower-cased pattern, against
// the list left by the previous removal.
func Reduce(current, additions, removals []string) []string {
	next, _ := ReduceWithChange(current, additions, removals)
	return next
}

// ReduceWithChange is Reduce that also reports the effective change.
func ReduceWithChange(current, additions, removals []string) ([]string, Change) {
	next := make([]string, 0, len(current)+len(additions))
	next = append(next, current...)

	var change Change
	for _, item := range additions {
		if contains(next, item) {
			continue
		}
		next = append(next, item)
		change.Added = append(change.Added, item)
	}

	for _, pattern := range removals {
		needle := strings.ToLower(pattern)
		kept := next[:0]
		var deleted []string
		for _, item := range next {
			if strings.Contains(strings.ToLower(item), needle) {
				deleted = append(deleted, item)
				continue
			}
			kept = append(kept, item)
		}
		next = kept
		change.Removed = append(change.Removed, Removal{Pattern: pattern, Deleted: deleted})
	}
	return next, change
}

func contains(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}
