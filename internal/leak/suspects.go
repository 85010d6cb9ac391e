package leak

import (
	"sort"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
)

// Suspect is an allocation site ranked by retained bytes: a pointer
// identity whose allocations were never observed as deallocated.
type Suspect struct {
	Ptr             string  `json:"ptr"`
	TotalBytes      float64 `json:"total_bytes"`
	AllocationCount int     `json:"allocation_count"`

	// EventType is one representative event descriptor for context.
	EventType string `json:"event_type"`
}

// RankSuspects surfaces the allocation sites most likely responsible for
// growth. It collects pointer identities with no deallocation from the
// lifecycle table, re-scans the original allocation events for those
// identities, and groups by pointer, summing sizes and counting
// occurrences. The full table is returned sorted descending by retained
// bytes (ties broken by pointer) — presentation may truncate.
func RankSuspects(lifecycles []Allocation, events []trace.Event) []Suspect {
	unreleased := make(map[string]bool)

	for _, l := range lifecycles {
		if !l.Released {
			unreleased[l.Ptr] = true
		}
	}

	if len(unreleased) == 0 {
		return nil
	}

	grouped := make(map[string]*Suspect)

	for _, e := range trace.Allocations(events) {
		if !unreleased[e.Ptr] {
			continue
		}

		s, seen := grouped[e.Ptr]
		if !seen {
			s = &Suspect{Ptr: e.Ptr, EventType: e.Type}
			grouped[e.Ptr] = s
		}

		s.AllocationCount++

		if e.SizeValid {
			s.TotalBytes += e.Size
		}
	}

	suspects := make([]Suspect, 0, len(grouped))

	for _, s := range grouped {
		suspects = append(suspects, *s)
	}

	sort.Slice(suspects, func(i, j int) bool {
		if suspects[i].TotalBytes != suspects[j].TotalBytes {
			return suspects[i].TotalBytes > suspects[j].TotalBytes
		}

		return suspects[i].Ptr < suspects[j].Ptr
	})

	return suspects
}
