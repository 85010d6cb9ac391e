package leak

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
)

// Allocation is one pointer lifecycle: an allocation paired with its
// deallocation when one was observed. Lifetime is clamped to be
// non-negative and is meaningful only when Released is true.
type Allocation struct {
	Ptr         string        `json:"ptr"`
	AllocatedAt time.Time     `json:"allocated_at"`
	Size        float64       `json:"size"`
	SizeValid   bool          `json:"size_valid"`
	EventType   string        `json:"event_type"`
	FreedAt     time.Time     `json:"freed_at,omitzero"`
	Released    bool          `json:"released"`
	Lifetime    time.Duration `json:"lifetime"`
}

// TrackLifecycles produces one lifecycle record per tracked allocation.
//
// Pointer values can be reused after a deallocation, and raw log order is
// not authoritative, so a first-match policy applies on both sides: when
// the same pointer identity appears in multiple allocations only the
// earliest is tracked, and an allocation pairs with the earliest
// deallocation sharing its identity. Leak detection cares about "ever
// freed" more than precise per-instance pairing.
//
// An empty input yields an empty table, not an error; downstream
// components treat emptiness as "no leak evidence". Records are ordered
// by allocation time (then pointer) so repeated runs are bit-identical.
func TrackLifecycles(events []trace.Event, logger *slog.Logger) []Allocation {
	if len(events) == 0 {
		logger.Warn("no events available for lifecycle tracking")

		return nil
	}

	firstAlloc := make(map[string]trace.Event)

	duplicates := 0

	for _, e := range trace.Allocations(events) {
		prev, seen := firstAlloc[e.Ptr]
		if !seen {
			firstAlloc[e.Ptr] = e

			continue
		}

		duplicates++

		if e.Timestamp.Before(prev.Timestamp) {
			firstAlloc[e.Ptr] = e
		}
	}

	if duplicates > 0 {
		logger.Warn("duplicate pointer allocations; keeping earliest per pointer",
			"duplicates", duplicates)
	}

	firstFree := make(map[string]time.Time)

	for _, e := range trace.Deallocations(events) {
		at, seen := firstFree[e.Ptr]
		if !seen || e.Timestamp.Before(at) {
			firstFree[e.Ptr] = e.Timestamp
		}
	}

	lifecycles := make([]Allocation, 0, len(firstAlloc))

	for ptr, alloc := range firstAlloc {
		record := Allocation{
			Ptr:         ptr,
			AllocatedAt: alloc.Timestamp,
			Size:        alloc.Size,
			SizeValid:   alloc.SizeValid,
			EventType:   alloc.Type,
		}

		freedAt, released := firstFree[ptr]
		if released {
			record.FreedAt = freedAt
			record.Released = true
			record.Lifetime = max(freedAt.Sub(alloc.Timestamp), 0)
		}

		lifecycles = append(lifecycles, record)
	}

	sort.Slice(lifecycles, func(i, j int) bool {
		if !lifecycles[i].AllocatedAt.Equal(lifecycles[j].AllocatedAt) {
			return lifecycles[i].AllocatedAt.Before(lifecycles[j].AllocatedAt)
		}

		return lifecycles[i].Ptr < lifecycles[j].Ptr
	})

	return lifecycles
}

// CountUnreleased returns the number of lifecycle records with no
// observed deallocation.
func CountUnreleased(lifecycles []Allocation) int {
	count := 0

	for _, l := range lifecycles {
		if !l.Released {
			count++
		}
	}

	return count
}
