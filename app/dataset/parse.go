package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ParseTable parses delimited text into a table. The first line is the
// header and never appears in the row sequence. Quoted fields are honored
// (a delimiter inside quotes is literal). A line whose field count does not
// match the header is dropped, not repaired.
//
// Cells are typed on read: numeric text becomes float64, empty text becomes
// nil, everything else stays a string.
func ParseTable(sourceText string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(sourceText))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []Row
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}
		if len(record) != len(headers) {
			dropped++
			continue
		}

		row := make(Row, len(headers))
		for i, field := range record {
			row[headers[i]] = typeCell(field)
		}
		rows = append(rows, row)
	}
	if dropped > 0 {
		slog.Warn("dropped malformed CSV rows", "count", dropped)
	}

	return NewTable(headers, rows), nil
}

// ParseLine parses one delimited line into fields, honoring quoting.
func ParseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	return reader.Read()
}

// SerializeLine renders fields as one delimited line without the trailing
// newline added by the CSV writer.
func SerializeLine(fields []string) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	if err := writer.Write(fields); err != nil {
		return "", err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func typeCell(field string) Value {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}
