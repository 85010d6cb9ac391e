package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation reports a JSON trace document failing validation.
var ErrSchemaViolation = errors.New("trace: json document violates schema")

// eventsSchema validates JSON event logs. Timestamps are nanoseconds since
// the Unix epoch; size and ptr are optional per event because the engine's
// column contract is checked table-wide by the classifier.
const eventsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["events"],
	"properties": {
		"events": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["timestamp", "type"],
				"properties": {
					"timestamp": {"type": "integer"},
					"type": {"type": "string"},
					"size": {"type": ["number", "string", "null"]},
					"ptr": {"type": "string"}
				}
			}
		}
	}
}`

// memorySchema validates JSON memory-usage series.
const memorySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["samples"],
	"properties": {
		"samples": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["timestamp", "usage"],
				"properties": {
					"timestamp": {"type": "integer"},
					"usage": {"type": "number"}
				}
			}
		}
	}
}`

type jsonEvent struct {
	Timestamp int64           `json:"timestamp"`
	Type      string          `json:"type"`
	Size      json.RawMessage `json:"size"`
	Ptr       *string         `json:"ptr"`
}

type jsonEventDoc struct {
	Events []jsonEvent `json:"events"`
}

type jsonMemorySample struct {
	Timestamp int64   `json:"timestamp"`
	Usage     float64 `json:"usage"`
}

type jsonMemoryDoc struct {
	Samples []jsonMemorySample `json:"samples"`
}

// ReadEventsJSON parses a raw event table from a JSON document, validating
// it against the events schema first. The table's column set is the union
// of fields present across events, so a document where no event carries a
// ptr or size yields a table missing that column.
func ReadEventsJSON(r io.Reader) (EventTable, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return EventTable{}, fmt.Errorf("trace: read events json: %w", err)
	}

	err = validateSchema(eventsSchema, raw)
	if err != nil {
		return EventTable{}, err
	}

	var doc jsonEventDoc

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return EventTable{}, fmt.Errorf("trace: decode events json: %w", err)
	}

	table := EventTable{Columns: []string{ColumnEventType}}

	var hasSize, hasPtr bool

	for _, event := range doc.Events {
		fields := map[string]string{ColumnEventType: event.Type}

		if size, ok := rawSizeString(event.Size); ok {
			fields[ColumnSize] = size
			hasSize = true
		}

		if event.Ptr != nil {
			fields[ColumnPtr] = *event.Ptr
			hasPtr = true
		}

		table.Rows = append(table.Rows, Row{
			Timestamp: time.Unix(0, event.Timestamp).UTC(),
			Fields:    fields,
		})
	}

	if hasSize {
		table.Columns = append(table.Columns, ColumnSize)
	}

	if hasPtr {
		table.Columns = append(table.Columns, ColumnPtr)
	}

	return table, nil
}

// ReadMemoryJSON parses a memory-usage series from a JSON document,
// validating it against the memory schema first.
func ReadMemoryJSON(r io.Reader) (MemorySeries, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: read memory json: %w", err)
	}

	err = validateSchema(memorySchema, raw)
	if err != nil {
		return nil, err
	}

	var doc jsonMemoryDoc

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, fmt.Errorf("trace: decode memory json: %w", err)
	}

	series := make(MemorySeries, len(doc.Samples))

	for i, sample := range doc.Samples {
		series[i] = MemorySample{
			Timestamp: time.Unix(0, sample.Timestamp).UTC(),
			Usage:     sample.Usage,
		}
	}

	return series, nil
}

func validateSchema(schema string, document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("trace: validate json: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))

	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}

// rawSizeString converts a raw JSON size value (number, string, or null)
// to its string form for the classifier's numeric coercion.
func rawSizeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, true
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.FormatFloat(asNumber, 'f', -1, 64), true
	}

	return "", false
}
