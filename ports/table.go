package ports

import (
	"context"

	"churnlens/domain/dataset"
)

// TableSource reads the raw customer table
type TableSource interface {
	ReadData() (*dataset.RawTable, error)
}

// TableSink receives finished output tables. Name is a stable table name such
// as "kpi_summary"; implementations decide the physical form (CSV file,
// workbook sheet).
type TableSink interface {
	WriteTable(ctx context.Context, name string, headers []string, rows [][]string) error
	Close() error
}
