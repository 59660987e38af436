// Package dbtest provides an in-memory database.TargetDatabase for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync"
)

// Call records one write issued against the mock.
type Call struct {
	Op    string // "reset" or "append"
	Table string
	Rows  [][]interface{} // copy of the rows passed to append, header included
}

// struct for testing the committer and the ingest engine
type MockTarget struct {
	mu     sync.Mutex
	name   string
	tables map[string][][]interface{}
	calls  []Call

	failOnReset    bool
	failOnAppend   int // 1-based append call to fail, 0 never
	appendAttempts int
}

func NewMockTarget(name string) *MockTarget {
	return &MockTarget{
		name:   name,
		tables: make(map[string][][]interface{}),
	}
}

func (m *MockTarget) Connect() error {
	return nil
}

func (m *MockTarget) Close() error {
	return nil
}

func (m *MockTarget) ResetTable(ctx context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "reset", Table: table})
	if m.failOnReset {
		return fmt.Errorf("mock reset failure for %s", table)
	}
	delete(m.tables, table)
	return nil
}

func (m *MockTarget) AppendRows(ctx context.Context, table string, rows [][]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([][]interface{}, len(rows))
	for i, row := range rows {
		copied[i] = append([]interface{}(nil), row...)
	}
	m.calls = append(m.calls, Call{Op: "append", Table: table, Rows: copied})

	m.appendAttempts++
	if m.failOnAppend > 0 && m.appendAttempts == m.failOnAppend {
		return fmt.Errorf("mock append failure on %s call %d", m.name, m.appendAttempts)
	}
	if len(copied) > 0 {
		m.tables[table] = append(m.tables[table], copied[1:]...)
	}
	return nil
}

// helper methods for tests

// Seed stores rows in table as if a previous run had left them there
func (m *MockTarget) Seed(table string, rows [][]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], rows...)
}

func (m *MockTarget) SetFailOnReset(fail bool) {
	m.failOnReset = fail
}

// SetFailOnAppend makes the n-th append call fail
func (m *MockTarget) SetFailOnAppend(n int) {
	m.failOnAppend = n
}

func (m *MockTarget) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockTarget) Appends() []Call {
	var appends []Call
	for _, c := range m.Calls() {
		if c.Op == "append" {
			appends = append(appends, c)
		}
	}
	return appends
}

func (m *MockTarget) ResetCount() int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op == "reset" {
			n++
		}
	}
	return n
}

// Rows returns the data rows currently stored for table
func (m *MockTarget) Rows(table string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]interface{}(nil), m.tables[table]...)
}
