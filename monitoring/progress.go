package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// tracks how far a chunked commit got; safe to read from another goroutine
type ProgressTracker struct {
	mu              sync.RWMutex
	totalRows       int64
	processedRows   int64
	totalChunks     int
	processedChunks int
	startTime       time.Time
	currentTable    string
	errors          []string
	lastUpdate      time.Time
	now             func() time.Time
}

// struct holding commit metrics
type CommitMetrics struct {
	TotalRows         int64         `json:"total_rows"`
	ProcessedRows     int64         `json:"processed_rows"`
	TotalChunks       int           `json:"total_chunks"`
	ProcessedChunks   int           `json:"processed_chunks"`
	RowsPerSecond     float64       `json:"rows_per_second"`
	EstimatedTimeLeft time.Duration `json:"estimated_time_left"`
	ElapsedTime       time.Duration `json:"elapsed_time"`
	CurrentTable      string        `json:"current_table"`
	ErrorCount        int           `json:"error_count"`
	ProgressPercent   float64       `json:"progress_percent"`
}

// creating a new progress tracker
func NewProgressTracker(totalRows int64, totalChunks int) *ProgressTracker {
	return newProgressTracker(totalRows, totalChunks, time.Now)
}

func newProgressTracker(totalRows int64, totalChunks int, now func() time.Time) *ProgressTracker {
	start := now()
	return &ProgressTracker{
		totalRows:   totalRows,
		totalChunks: totalChunks,
		startTime:   start,
		lastUpdate:  start,
		errors:      make([]string, 0),
		now:         now,
	}
}

// records rows written by a finished chunk
func (pt *ProgressTracker) CompletedChunk(rows int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.processedRows += rows
	pt.processedChunks++
	pt.lastUpdate = pt.now()
}

func (pt *ProgressTracker) SetCurrentTable(tableName string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.currentTable = tableName
}

func (pt *ProgressTracker) AddError(err string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.errors = append(pt.errors, fmt.Sprintf("[%s] %s", pt.now().Format("15:04:05"), err))
}

// returning current commit metrics
func (pt *ProgressTracker) GetMetrics() CommitMetrics {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	elapsedTime := pt.now().Sub(pt.startTime)

	var progressPercent float64
	if pt.totalRows > 0 {
		progressPercent = float64(pt.processedRows) / float64(pt.totalRows) * 100
	}

	var rowsPerSecond float64
	if elapsedTime.Seconds() > 0 {
		rowsPerSecond = float64(pt.processedRows) / elapsedTime.Seconds()
	}

	var estimatedTimeLeft time.Duration
	if rowsPerSecond > 0 && pt.totalRows > pt.processedRows {
		remainingRows := pt.totalRows - pt.processedRows
		estimatedTimeLeft = time.Duration(float64(remainingRows) / rowsPerSecond * float64(time.Second))
	}

	return CommitMetrics{
		TotalRows:         pt.totalRows,
		ProcessedRows:     pt.processedRows,
		TotalChunks:       pt.totalChunks,
		ProcessedChunks:   pt.processedChunks,
		RowsPerSecond:     rowsPerSecond,
		EstimatedTimeLeft: estimatedTimeLeft,
		ElapsedTime:       elapsedTime,
		CurrentTable:      pt.currentTable,
		ErrorCount:        len(pt.errors),
		ProgressPercent:   progressPercent,
	}
}

// returning the most recent errors(up to limit)
func (pt *ProgressTracker) GetRecentErrors(limit int) []string {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	if len(pt.errors) <= limit {
		return append([]string(nil), pt.errors...)
	}
	return append([]string(nil), pt.errors[len(pt.errors)-limit:]...)
}

// logs a one line progress report
func (pt *ProgressTracker) PrintProgress(logger *Logger) {
	metrics := pt.GetMetrics()
	logger.Info("Progress: %.1f%% (%d/%d rows, %d/%d chunks) | Speed: %.0f rows/sec | ETA: %s | Table: %s",
		metrics.ProgressPercent,
		metrics.ProcessedRows,
		metrics.TotalRows,
		metrics.ProcessedChunks,
		metrics.TotalChunks,
		metrics.RowsPerSecond,
		formatDuration(metrics.EstimatedTimeLeft),
		metrics.CurrentTable,
	)
}

// formats the duration in a human readable way
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	} else {
		return fmt.Sprintf("%ds", seconds)
	}
}

// logs the final commit summary
func (pt *ProgressTracker) PrintFinalSummary(logger *Logger) {
	metrics := pt.GetMetrics()

	logger.Info("Commit to %s finished in %s: %d/%d rows (%.1f%%), %d/%d chunks, %.0f rows/sec",
		metrics.CurrentTable,
		formatDuration(metrics.ElapsedTime),
		metrics.ProcessedRows,
		metrics.TotalRows,
		metrics.ProgressPercent,
		metrics.ProcessedChunks,
		metrics.TotalChunks,
		metrics.RowsPerSecond,
	)

	if metrics.ErrorCount > 0 {
		logger.Error("Errors encountered: %d", metrics.ErrorCount)
		for _, err := range pt.GetRecentErrors(5) {
			logger.Error(" - %s", err)
		}
	}
}
