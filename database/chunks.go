package database

import (
	"fmt"
	"iter"
	"slices"
)

const DefaultBatchSize = 1000

// Chunks lazily yields consecutive sub-slices of at most size elements; the
// last one may be shorter. The sub-slices share s's backing array.
// size must be positive.
func Chunks[T any](s []T, size int) iter.Seq[[]T] {
	return slices.Chunk(s, size)
}

// for batch processing of data
type BatchProcessor struct {
	batchSize int
}

// creating a new batch processor, non-positive sizes fall back to the default
func NewBatchProcessor(batchsize int) *BatchProcessor {
	if batchsize <= 0 {
		batchsize = DefaultBatchSize
	}
	return &BatchProcessor{batchSize: batchsize}
}

func (bp *BatchProcessor) BatchSize() int {
	return bp.batchSize
}

// processing data in batches, stops at the first failing batch
func (bp *BatchProcessor) ProcessInBatches(data [][]interface{}, processFunc func(batch int, rows [][]interface{}) error) error {
	if len(data) == 0 {
		return nil
	}

	batch, start := 0, 0
	for rows := range Chunks(data, bp.batchSize) {
		end := start + len(rows)
		if err := processFunc(batch, rows); err != nil {
			return fmt.Errorf("failed to process the batch %d-%d: %w", start, end, err)
		}

		batch++
		start = end
	}
	return nil
}
