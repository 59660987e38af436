package database

import "fmt"

// TableRegistry maps logical table names to physical ones. It is built once
// from configuration and never modified.
type TableRegistry struct {
	tables map[string]string
}

func NewTableRegistry(tables map[string]string) TableRegistry {
	copied := make(map[string]string, len(tables))
	for k, v := range tables {
		copied[k] = v
	}
	return TableRegistry{tables: copied}
}

// Resolve returns the physical table for a logical name
func (r TableRegistry) Resolve(logical string) (string, error) {
	physical, ok := r.tables[logical]
	if !ok {
		return "", fmt.Errorf("no table registered for %q", logical)
	}
	return physical, nil
}
