// Package reconcile keeps an association set equal to an expected set.
//
// Reconciliation is full replace: any difference between the expected ids and
// the ids currently assigned removes every assigned association, and the caller
// writes the expected set afterwards. Removal and re-creation are separate
// calls, so a failure between them leaves the association empty.
package reconcile

import (
	"context"
	"fmt"
	"sort"
)

// Plan is the edit script produced by Diff.
type Plan struct {
	Changed bool
	Remove  []string
	Add     []string
}

// Diff compares expected with assigned.
func Diff(expected, assigned []string) Plan {
	exp := toSet(expected)
	cur := toSet(assigned)

	changed := len(exp) != len(cur)
	if !changed {
		for id := range exp {
			if _, ok := cur[id]; !ok {
				changed = true
				break
			}
		}
	}
	if !changed {
		for id := range cur {
			if _, ok := exp[id]; !ok {
				changed = true
				break
			}
		}
	}

	if !changed {
		return Plan{}
	}
	return Plan{
		Changed: true,
		Remove:  sortedKeys(cur),
		Add:     sortedKeys(exp),
	}
}

// Lookup returns the ids currently assigned.
type Lookup func(ctx context.Context) ([]string, error)

// Remover deletes assigned associations by id.
type Remover interface {
	Remove(ctx context.Context, ids []string) error
}

// RemoverFunc adapts a function to Remover.
type RemoverFunc func(ctx context.Context, ids []string) error

func (f RemoverFunc) Remove(ctx context.Context, ids []string) error {
	return f(ctx, ids)
}

// Reconcile looks up the assigned ids, diffs them against expected and removes
// the assigned set when they differ.
func Reconcile(ctx context.Context, expected []string, lookup Lookup, remover Remover) (Plan, error) {
	assigned, err := lookup(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("lookup assigned associations: %w", err)
	}

	plan := Diff(expected, assigned)
	if !plan.Changed || len(plan.Remove) == 0 {
		return plan, nil
	}

	if err := remover.Remove(ctx, plan.Remove); err != nil {
		return plan, fmt.Errorf("remove associations: %w", err)
	}
	return plan, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
