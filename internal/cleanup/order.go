package cleanup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/phrazzld/txspec/internal/store"
)

// Order returns tables sorted so that every table comes before the tables it
// references. Ties are broken alphabetically, so the result is stable for a
// given schema. Self references are ignored because a single DELETE removes
// them. Edges that mention tables outside the list are ignored.
//
// A cycle yields an error wrapping store.ErrCyclicDependency that names the
// tables involved.
func Order(tables []string, fks []store.ForeignKey) ([]string, error) {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t] = true
	}

	// parents[child] are the tables child references. A table may be deleted
	// once nothing left references it, so in-degree counts referencing children.
	referencedBy := make(map[string]map[string]bool, len(tables))
	parents := make(map[string]map[string]bool, len(tables))
	for _, fk := range fks {
		if fk.Table == fk.References || !known[fk.Table] || !known[fk.References] {
			continue
		}
		if referencedBy[fk.References] == nil {
			referencedBy[fk.References] = map[string]bool{}
		}
		if parents[fk.Table] == nil {
			parents[fk.Table] = map[string]bool{}
		}
		referencedBy[fk.References][fk.Table] = true
		parents[fk.Table][fk.References] = true
	}

	remaining := make(map[string]int, len(known))
	for t := range known {
		remaining[t] = len(referencedBy[t])
	}

	var ready []string
	for t, n := range remaining {
		if n == 0 {
			ready = append(ready, t)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(known))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		delete(remaining, next)

		var unlocked []string
		for parent := range parents[next] {
			remaining[parent]--
			if remaining[parent] == 0 {
				unlocked = append(unlocked, parent)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			slices.Sort(ready)
		}
	}

	if len(remaining) > 0 {
		cycle := make([]string, 0, len(remaining))
		for t := range remaining {
			cycle = append(cycle, t)
		}
		slices.Sort(cycle)
		return nil, fmt.Errorf("%w between tables: %s",
			store.ErrCyclicDependency, strings.Join(cycle, ", "))
	}
	return order, nil
}

// OrderError reports a parent table listed before one of its children.
type OrderError struct {
	Parent string
	Child  string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("table %q is deleted before %q, which references it", e.Parent, e.Child)
}

// Verify checks an explicit delete order against the foreign keys and
// returns an *OrderError for the first parent listed before its child.
func Verify(order []string, fks []store.ForeignKey) error {
	position := make(map[string]int, len(order))
	for i, t := range order {
		position[t] = i
	}
	for i, t := range order {
		for _, fk := range fks {
			if fk.References != t || fk.Table == t {
				continue
			}
			if j, ok := position[fk.Table]; ok && j > i {
				return &OrderError{Parent: t, Child: fk.Table}
			}
		}
	}
	return nil
}
