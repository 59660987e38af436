package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
)

// snapshot states
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// record of one paper commit, holding the staged rows when the commit failed
type Snapshot struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	PaperID   int             `json:"paper_id"`
	File      string          `json:"file"`
	Table     string          `json:"table"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Committed int             `json:"committed"`
	Header    []string        `json:"header,omitempty"`
	Rows      [][]interface{} `json:"rows,omitempty"`
}

// type for keeping commit snapshots on disk
type SnapshotManager struct {
	snapshotsDir string
	logger       *monitoring.Logger
}

// creating a new snapshot manager, the directory is created when missing
func NewSnapshotManager(dir string, logger *monitoring.Logger) (*SnapshotManager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create snapshot directory, %w", err)
	}
	if logger == nil {
		logger = monitoring.DefaultLogger
	}
	return &SnapshotManager{snapshotsDir: dir, logger: logger}, nil
}

func (sm *SnapshotManager) Dir() string {
	return sm.snapshotsDir
}

// creating a snapshot before a commit
func (sm *SnapshotManager) CreateSnapshot(runID string, job Job, table string) (*Snapshot, error) {
	snapshot := &Snapshot{
		ID:        fmt.Sprintf("paper_%d_%s", job.PaperID, uuid.NewString()),
		RunID:     runID,
		Timestamp: time.Now(),
		PaperID:   job.PaperID,
		File:      job.File,
		Table:     table,
		Status:    StatusInProgress,
	}
	if err := sm.saveSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot, %w", err)
	}
	sm.logger.Debug("Created snapshot %s", snapshot.ID)
	return snapshot, nil
}

// saving a snapshot to the disk
func (sm *SnapshotManager) saveSnapshot(snapshot *Snapshot) error {
	fileName := filepath.Join(sm.snapshotsDir, snapshot.ID+".json")

	data, err := json.MarshalIndent(snapshot, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot, %w", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file, %w", err)
	}
	return nil
}

// loading a snapshot from the disk
func (sm *SnapshotManager) LoadSnapshot(snapshotID string) (*Snapshot, error) {
	filename := filepath.Join(sm.snapshotsDir, snapshotID+".json")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file, %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot, %w", err)
	}
	return &snapshot, nil
}

// marking the snapshot as completed
func (sm *SnapshotManager) MarkSnapshotCompleted(snapshotID string, committed int) error {
	snapshot, err := sm.LoadSnapshot(snapshotID)
	if err != nil {
		return err
	}
	snapshot.Status = StatusCompleted
	snapshot.Committed = committed
	return sm.saveSnapshot(snapshot)
}

// marking the snapshot as failed and keeping the staged rows for recovery
func (sm *SnapshotManager) MarkSnapshotFailed(snapshotID string, cause error, ds *rawkv.StagedDataset) error {
	snapshot, err := sm.LoadSnapshot(snapshotID)
	if err != nil {
		return err
	}

	snapshot.Status = StatusFailed
	snapshot.Error = cause.Error()
	var commitErr *rawkv.CommitError
	if errors.As(cause, &commitErr) {
		snapshot.Committed = commitErr.Committed
	}
	if ds != nil {
		snapshot.Header = ds.Header
		snapshot.Rows = make([][]interface{}, 0, len(ds.Rows))
		for _, row := range ds.Rows {
			snapshot.Rows = append(snapshot.Rows, []interface{}{row.PaperID, row.RawID, row.Key, jsonValue(row.Value)})
		}
	}

	sm.logger.Warn("Snapshot %s marked failed with %d staged rows", snapshotID, len(snapshot.Rows))
	return sm.saveSnapshot(snapshot)
}

// json has no encoding for non-finite numbers
func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Sprint(f)
	}
	return v
}

// returns all snapshots, oldest first
func (sm *SnapshotManager) ListSnapshots() ([]Snapshot, error) {
	files, err := filepath.Glob(filepath.Join(sm.snapshotsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list the snapshots, %w", err)
	}

	var snapshots []Snapshot
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			sm.logger.Warn("Could not read snapshot file %s, %v", file, err)
			continue
		}
		var snapshot Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			sm.logger.Warn("Could not parse snapshot file %s, %v", file, err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// removing completed snapshots older than maxAge, failed ones too when asked
func (sm *SnapshotManager) CleanupOldSnapshots(maxAge time.Duration, includeFailed bool) (int, error) {
	snapshots, err := sm.ListSnapshots()
	if err != nil {
		return 0, err
	}
	cutoffTime := time.Now().Add(-maxAge)
	cleaned := 0

	for _, snapshot := range snapshots {
		if !snapshot.Timestamp.Before(cutoffTime) {
			continue
		}
		if snapshot.Status != StatusCompleted && !(includeFailed && snapshot.Status == StatusFailed) {
			continue
		}

		filename := filepath.Join(sm.snapshotsDir, snapshot.ID+".json")
		if err := os.Remove(filename); err != nil {
			sm.logger.Warn("Could not remove snapshot %s, %v", filename, err)
			continue
		}
		cleaned++
		sm.logger.Debug("Cleaned up old snapshot %s", snapshot.ID)
	}
	sm.logger.Info("Cleaned up %d old snapshots", cleaned)
	return cleaned, nil
}
