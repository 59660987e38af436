package rawkv

import (
	"context"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/database"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
)

// Committer writes a StagedDataset to one table. Small datasets go in a
// single append; larger ones reset the table and append fixed-size chunks.
type Committer struct {
	db            database.TargetDatabase
	table         string
	chunkSize     int
	bulkThreshold int
	logger        *monitoring.Logger
	tracker       *monitoring.ProgressTracker
}

type CommitterOption func(*Committer)

// WithChunkSize sets the number of data rows per chunk.
func WithChunkSize(n int) CommitterOption {
	return func(c *Committer) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithBulkThreshold sets the dataset length (header included) from which
// the chunked path is taken.
func WithBulkThreshold(n int) CommitterOption {
	return func(c *Committer) {
		if n > 0 {
			c.bulkThreshold = n
		}
	}
}

func WithCommitLogger(logger *monitoring.Logger) CommitterOption {
	return func(c *Committer) {
		c.logger = logger
	}
}

func NewCommitter(db database.TargetDatabase, table string, opts ...CommitterOption) *Committer {
	c := &Committer{
		db:            db,
		table:         table,
		chunkSize:     config.DefaultChunkSize,
		bulkThreshold: config.DefaultBulkThreshold,
		logger:        monitoring.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Committer) Table() string {
	return c.table
}

// Progress returns the tracker of the last commit, nil before the first.
func (c *Committer) Progress() *monitoring.ProgressTracker {
	return c.tracker
}

// Commit persists ds. A failure aborts the remaining chunks; chunks already
// appended are not rolled back.
func (c *Committer) Commit(ctx context.Context, ds *StagedDataset) error {
	if ds == nil {
		return ErrNotLoaded
	}

	table := ds.Table()
	data := table[1:]

	if ds.Len() < c.bulkThreshold {
		c.tracker = monitoring.NewProgressTracker(int64(len(data)), 1)
		c.tracker.SetCurrentTable(c.table)

		c.logger.Info("Appending %d rows to %s in a single insert", len(data), c.table)
		if err := c.db.AppendRows(ctx, c.table, table); err != nil {
			return c.fail(ds, StageBulk, 0, 0, err)
		}
		c.tracker.CompletedChunk(int64(len(data)))
		c.tracker.PrintFinalSummary(c.logger)
		return nil
	}

	chunks := (len(data) + c.chunkSize - 1) / c.chunkSize
	c.tracker = monitoring.NewProgressTracker(int64(len(data)), chunks)
	c.tracker.SetCurrentTable(c.table)

	c.logger.Info("Resetting %s before appending %d rows in %d chunks", c.table, len(data), chunks)
	if err := c.db.ResetTable(ctx, c.table); err != nil {
		return c.fail(ds, StageReset, -1, 0, err)
	}

	header := table[0]
	committed, failedChunk := 0, -1
	var appendErr error

	processor := database.NewBatchProcessor(c.chunkSize)
	err := processor.ProcessInBatches(data, func(batch int, rows [][]interface{}) error {
		chunk := make([][]interface{}, 0, len(rows)+1)
		chunk = append(chunk, header)
		chunk = append(chunk, rows...)

		if err := c.db.AppendRows(ctx, c.table, chunk); err != nil {
			failedChunk, appendErr = batch, err
			return err
		}
		committed += len(rows)
		c.tracker.CompletedChunk(int64(len(rows)))
		c.logger.Debug("Chunk %d/%d appended to %s", batch+1, chunks, c.table)
		if c.logger.Enabled(monitoring.LogLevelDebug) {
			c.tracker.PrintProgress(c.logger)
		}
		return nil
	})
	if err != nil {
		if appendErr == nil {
			appendErr = err
		}
		return c.fail(ds, StageChunk, failedChunk, committed, appendErr)
	}

	c.tracker.PrintFinalSummary(c.logger)
	return nil
}

// logs the failure together with the whole dataset so the rows can be
// recovered from the log
func (c *Committer) fail(ds *StagedDataset, stage string, chunk, committed int, err error) error {
	c.tracker.AddError(err.Error())
	c.logger.Error("EXCEPTION on insert to table %s (%s): %v", c.table, stage, err)
	c.logger.Error("Staged data (%d rows): %v", ds.Len(), ds.Table())
	c.tracker.PrintFinalSummary(c.logger)

	return &CommitError{
		Table:     c.table,
		Stage:     stage,
		Chunk:     chunk,
		Committed: committed,
		Dataset:   ds,
		Err:       err,
	}
}
