// Package trace defines the input table contracts of the leak analysis
// engine and the ingestion collaborators that produce them: an event log
// of allocation/deallocation records and a sampled memory-usage series.
package trace

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Canonical column names of the raw event table.
const (
	ColumnEventType = "Event type"
	ColumnSize      = "size"
	ColumnPtr       = "ptr"
)

// Substrings identifying memory events in the raw event-type field.
// Matching is case-sensitive.
const (
	markerAllocation   = "malloc"
	markerDeallocation = "free"
)

// Category classifies a raw event row.
type Category int

// Event categories. Rows matching neither marker are CategoryOther and
// are dropped by Classify.
const (
	CategoryOther Category = iota
	CategoryAllocation
	CategoryDeallocation
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAllocation:
		return "allocation"
	case CategoryDeallocation:
		return "deallocation"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// Row is a single raw event record. Fields carries the remaining columns
// keyed by column name; values are uncoerced strings.
type Row struct {
	Timestamp time.Time
	Fields    map[string]string
}

// EventTable is the raw event log as produced by an ingestion collaborator.
// Rows are ordered by timestamp as recorded, which is not authoritative.
type EventTable struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table carries the named column.
func (t EventTable) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Empty reports whether the table has no rows.
func (t EventTable) Empty() bool {
	return len(t.Rows) == 0
}

// Event is a classified memory event with canonically typed fields.
// Size is meaningful only when SizeValid is true; rows whose size field
// failed to parse keep SizeValid false and are excluded from size
// statistics but still counted as allocations.
type Event struct {
	Timestamp time.Time
	Type      string
	Category  Category
	Ptr       string
	Size      float64
	SizeValid bool
}

// Classify retains the allocation and deallocation rows of a raw event
// table and coerces their size and pointer fields to canonical types.
//
// When the table lacks the required size or ptr columns, Classify returns
// nil: the caller must treat the whole analysis as having insufficient
// data rather than receive a malformed table.
func Classify(table EventTable, logger *slog.Logger) []Event {
	if !table.HasColumn(ColumnSize) || !table.HasColumn(ColumnPtr) {
		logger.Warn("event table lacks required columns for memory analysis",
			"required", []string{ColumnSize, ColumnPtr})

		return nil
	}

	events := make([]Event, 0, len(table.Rows))

	for _, row := range table.Rows {
		eventType := row.Fields[ColumnEventType]

		category := CategoryOther
		if strings.Contains(eventType, markerAllocation) {
			category = CategoryAllocation
		}

		if strings.Contains(eventType, markerDeallocation) {
			category = CategoryDeallocation
		}

		if category == CategoryOther {
			continue
		}

		event := Event{
			Timestamp: row.Timestamp,
			Type:      eventType,
			Category:  category,
			Ptr:       row.Fields[ColumnPtr],
		}

		size, err := strconv.ParseFloat(strings.TrimSpace(row.Fields[ColumnSize]), 64)
		if err == nil {
			event.Size = size
			event.SizeValid = true
		}

		events = append(events, event)
	}

	return events
}

// Allocations filters the allocation events.
func Allocations(events []Event) []Event {
	return filterCategory(events, CategoryAllocation)
}

// Deallocations filters the deallocation events.
func Deallocations(events []Event) []Event {
	return filterCategory(events, CategoryDeallocation)
}

func filterCategory(events []Event, category Category) []Event {
	var out []Event

	for _, e := range events {
		if e.Category == category {
			out = append(out, e)
		}
	}

	return out
}
