package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Sentinel ingestion errors.
var (
	ErrNoHeader           = errors.New("trace: input has no header row")
	ErrNoTimestampColumn  = errors.New("trace: input lacks a timestamp column")
	ErrNoUsageColumn      = errors.New("trace: memory table lacks the usage column")
	ErrUnsupportedFormat  = errors.New("trace: unsupported trace file format")
	ErrInvalidTimestamp   = errors.New("trace: invalid timestamp value")
	ErrInvalidMemoryUsage = errors.New("trace: invalid memory usage value")
)

// Accepted timestamp column names. Trace Compass exports use "timestamp ns".
var timestampColumns = []string{"timestamp", "timestamp ns"}

// File extensions recognized by the path-based loaders.
const (
	extCSV  = ".csv"
	extJSON = ".json"
	extLZ4  = ".lz4"
)

// LoadEvents reads a raw event table from path. CSV and JSON files are
// supported, optionally LZ4-compressed (an additional .lz4 suffix).
func LoadEvents(path string) (EventTable, error) {
	reader, format, closeFn, err := openTrace(path)
	if err != nil {
		return EventTable{}, err
	}
	defer closeFn()

	switch format {
	case extCSV:
		return ReadEventsCSV(reader)
	case extJSON:
		return ReadEventsJSON(reader)
	default:
		return EventTable{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadMemory reads a memory-usage series from path. CSV and JSON files are
// supported, optionally LZ4-compressed (an additional .lz4 suffix).
func LoadMemory(path string) (MemorySeries, error) {
	reader, format, closeFn, err := openTrace(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	switch format {
	case extCSV:
		return ReadMemoryCSV(reader)
	case extJSON:
		return ReadMemoryJSON(reader)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func openTrace(path string) (io.Reader, string, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("trace: open %s: %w", path, err)
	}

	name := path

	var reader io.Reader = f

	if filepath.Ext(name) == extLZ4 {
		reader = lz4.NewReader(f)
		name = strings.TrimSuffix(name, extLZ4)
	}

	return reader, filepath.Ext(name), func() { _ = f.Close() }, nil
}

// ReadEventsCSV parses a raw event table from CSV. The first row is the
// header; a timestamp column is required. All other columns are preserved
// verbatim for the classifier to interpret.
func ReadEventsCSV(r io.Reader) (EventTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return EventTable{}, fmt.Errorf("trace: read events csv: %w", err)
	}

	if len(records) == 0 {
		return EventTable{}, ErrNoHeader
	}

	header := records[0]

	tsIdx := timestampIndex(header)
	if tsIdx < 0 {
		return EventTable{}, ErrNoTimestampColumn
	}

	columns := make([]string, 0, len(header)-1)

	for i, col := range header {
		if i != tsIdx {
			columns = append(columns, col)
		}
	}

	table := EventTable{Columns: columns}

	for _, record := range records[1:] {
		ts, tsErr := parseTimestamp(record[tsIdx])
		if tsErr != nil {
			return EventTable{}, tsErr
		}

		fields := make(map[string]string, len(columns))

		for i, col := range header {
			if i != tsIdx && i < len(record) {
				fields[col] = record[i]
			}
		}

		table.Rows = append(table.Rows, Row{Timestamp: ts, Fields: fields})
	}

	return table, nil
}

// ReadMemoryCSV parses a memory-usage series from CSV with a timestamp
// column and a "Memory Usage" column.
func ReadMemoryCSV(r io.Reader) (MemorySeries, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trace: read memory csv: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := records[0]

	tsIdx := timestampIndex(header)
	if tsIdx < 0 {
		return nil, ErrNoTimestampColumn
	}

	usageIdx := -1

	for i, col := range header {
		if col == ColumnMemoryUsage {
			usageIdx = i
		}
	}

	if usageIdx < 0 {
		return nil, ErrNoUsageColumn
	}

	series := make(MemorySeries, 0, len(records)-1)

	for _, record := range records[1:] {
		ts, tsErr := parseTimestamp(record[tsIdx])
		if tsErr != nil {
			return nil, tsErr
		}

		usage, usageErr := strconv.ParseFloat(strings.TrimSpace(record[usageIdx]), 64)
		if usageErr != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMemoryUsage, record[usageIdx])
		}

		series = append(series, MemorySample{Timestamp: ts, Usage: usage})
	}

	return series, nil
}

func timestampIndex(header []string) int {
	for i, col := range header {
		for _, want := range timestampColumns {
			if strings.EqualFold(col, want) {
				return i
			}
		}
	}

	return -1
}

// parseTimestamp accepts either integer nanoseconds since the Unix epoch
// or an RFC 3339 timestamp.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	ns, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return time.Unix(0, ns).UTC(), nil
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return ts, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}
