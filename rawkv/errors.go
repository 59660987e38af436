package rawkv

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by Commit before a successful Load.
	ErrNotLoaded = errors.New("rawkv: no staged data, call Load first")

	ErrEmptyGrid = errors.New("sheet has no rows")
)

// LoadError reports why a sheet could not be turned into staged data.
type LoadError struct {
	Op    string // "read", "sheet" or "normalize"
	Path  string
	Sheet string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (sheet %q): %s: %v", e.Path, e.Sheet, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// commit stages
const (
	StageBulk  = "bulk"
	StageReset = "reset"
	StageChunk = "chunk"
)

// CommitError wraps a database failure during Commit. Rows of chunks before
// Chunk stay in the table.
type CommitError struct {
	Table     string
	Stage     string
	Chunk     int // index of the failing chunk, -1 for a failed reset
	Committed int // data rows persisted before the failure
	Dataset   *StagedDataset
	Err       error
}

func (e *CommitError) Error() string {
	switch e.Stage {
	case StageReset:
		return fmt.Sprintf("commit to %s: reset table: %v", e.Table, e.Err)
	case StageChunk:
		return fmt.Sprintf("commit to %s: chunk %d (%d rows already committed): %v", e.Table, e.Chunk, e.Committed, e.Err)
	default:
		return fmt.Sprintf("commit to %s: %v", e.Table, e.Err)
	}
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
