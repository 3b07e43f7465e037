package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ScheduleDataset converts materialized schedule rows into an exportable
// dataset.
func ScheduleDataset(rows []models.ScheduleRow) Dataset {
	headers := []string{"date", "start_time", "end_time", "room", "teacher", "student", "warning"}
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]string{
			"date":       row.Date.Format(models.DateLayout),
			"start_time": row.StartTime,
			"end_time":   row.EndTime,
			"room":       row.Room,
			"teacher":    row.TeacherName,
			"student":    row.StudentLabel,
			"warning":    row.ConflictWarning,
		})
	}
	return Dataset{Headers: headers, Rows: out}
}
