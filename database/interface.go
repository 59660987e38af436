package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/SusheelSathyaraj/PaperPipe/config"
)

// TargetDatabase is the write side the committer needs. rows[0] passed to
// AppendRows is the column-name header; rows[1:] are data.
type TargetDatabase interface {
	Connect() error
	Close() error
	ResetTable(ctx context.Context, table string) error
	AppendRows(ctx context.Context, table string, rows [][]interface{}) error
}

// create the client for the configured target, not yet connected
func NewTargetFromConfig(cfg *config.Config) (TargetDatabase, error) {
	switch strings.ToLower(cfg.Target) {
	case "mysql":
		return NewMYSQLClientFromConfig(cfg), nil
	case "postgresql":
		return NewPostgreSQLClientFromConfig(cfg), nil
	case "mongodb":
		return NewMongoDBClientFromConfig(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported target database type %s", cfg.Target)
	}
}

// splitHeader separates the column-name header from the data rows and checks
// every data row has the header's width
func splitHeader(rows [][]interface{}) ([]string, [][]interface{}, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no header row to append")
	}

	columns := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		name, ok := col.(string)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("invalid column name %v at position %d", col, i)
		}
		columns[i] = name
	}

	data := rows[1:]
	for i, row := range data {
		if len(row) != len(columns) {
			return nil, nil, fmt.Errorf("row %d has %d values, expected %d", i+1, len(row), len(columns))
		}
	}
	return columns, data, nil
}
