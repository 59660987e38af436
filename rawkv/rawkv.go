// Package rawkv loads a wide spreadsheet sheet into long-format
// (paper_id, raw_id, key, value) rows and commits them to the raw key/value
// table.
package rawkv

import (
	"context"
	"errors"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/database"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
)

type State int

const (
	Unloaded State = iota
	Loaded
	Committed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Committed:
		return "committed"
	default:
		return "unloaded"
	}
}

type Option func(*RawKV)

// WithSheet sets the sheet read by Load.
func WithSheet(sheet string) Option {
	return func(m *RawKV) {
		if sheet != "" {
			m.sheet = sheet
		}
	}
}

func WithLogger(logger *monitoring.Logger) Option {
	return func(m *RawKV) {
		m.logger = logger
	}
}

// WithCommitOptions forwards options to the Committer.
func WithCommitOptions(opts ...CommitterOption) Option {
	return func(m *RawKV) {
		m.commitOpts = append(m.commitOpts, opts...)
	}
}

// RawKV is the raw key/value model of one paper.
type RawKV struct {
	paperID    int
	sheet      string
	table      string
	reader     spreadsheet.Reader
	committer  *Committer
	commitOpts []CommitterOption
	logger     *monitoring.Logger
	state      State
	data       *StagedDataset
}

// New resolves the raw key/value table from tables and binds the model to a
// reader and a target.
func New(paperID int, reader spreadsheet.Reader, db database.TargetDatabase, tables database.TableRegistry, opts ...Option) (*RawKV, error) {
	table, err := tables.Resolve(config.RawKeyValueTable)
	if err != nil {
		return nil, err
	}

	m := &RawKV{
		paperID: paperID,
		sheet:   config.DefaultSheet,
		table:   table,
		reader:  reader,
		logger:  monitoring.DefaultLogger,
	}
	for _, opt := range opts {
		opt(m)
	}

	commitOpts := append([]CommitterOption{WithCommitLogger(m.logger)}, m.commitOpts...)
	m.committer = NewCommitter(db, table, commitOpts...)
	return m, nil
}

func (m *RawKV) PaperID() int {
	return m.paperID
}

func (m *RawKV) Sheet() string {
	return m.sheet
}

// TableName is the physical table rows are committed to.
func (m *RawKV) TableName() string {
	return m.table
}

func (m *RawKV) Properties() []string {
	return Properties()
}

func (m *RawKV) State() State {
	return m.state
}

// Data returns the staged dataset, nil before the first successful Load.
func (m *RawKV) Data() *StagedDataset {
	return m.data
}

func (m *RawKV) Committer() *Committer {
	return m.committer
}

// Load reads the sheet from filename and replaces the staged data. On error
// the previous staged data is kept.
func (m *RawKV) Load(filename string, opts ...spreadsheet.Option) error {
	sheet := spreadsheet.Resolve(m.sheet, opts...).Sheet
	m.logger.Info("Loading paper %d from %s (sheet %s)", m.paperID, filename, sheet)

	grid, err := m.reader.Read(filename, m.sheet, opts...)
	if err != nil {
		op := "read"
		if errors.Is(err, spreadsheet.ErrSheetNotFound) {
			op = "sheet"
		}
		return &LoadError{Op: op, Path: filename, Sheet: sheet, Err: err}
	}

	ds, err := Normalize(m.paperID, grid)
	if err != nil {
		return &LoadError{Op: "normalize", Path: filename, Sheet: sheet, Err: err}
	}
	m.logger.Debug("Header of %s: %v", filename, ds.Keys)
	m.logger.Info("Staged %d rows from %d data rows x %d keys", len(ds.Rows), len(grid)-1, len(ds.Keys))

	m.data = ds
	m.state = Loaded
	return nil
}

// Commit writes the staged data to TableName and returns it.
func (m *RawKV) Commit(ctx context.Context) (*StagedDataset, error) {
	if m.data == nil {
		return nil, ErrNotLoaded
	}
	if err := m.committer.Commit(ctx, m.data); err != nil {
		return m.data, err
	}
	m.state = Committed
	return m.data, nil
}
