package routing

import (
	"sort"
	"strings"

	"dentalvoice/internal/agents"
)

// SelectTransfer picks one transfer target:
//  1. filter to Available; nothing available means no target,
//  2. if preferredRole matches any filtered target, the first such match
//     wins (list order),
//  3. otherwise the lowest Priority value wins; the sort is stable, so
//     ties keep their original relative order.
func SelectTransfer(targets []agents.TransferTarget, preferredRole string) *agents.TransferTarget {
	available := make([]agents.TransferTarget, 0, len(targets))
	for _, t := range targets {
		if t.Available {
			available = append(available, t)
		}
	}
	if len(available) == 0 {
		return nil
	}

	if preferredRole != "" {
		for i := range available {
			if strings.EqualFold(available[i].Role, preferredRole) {
				t := available[i]
				return &t
			}
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Priority < available[j].Priority
	})
	t := available[0]
	return &t
}
