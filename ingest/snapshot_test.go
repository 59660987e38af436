package ingest

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
)

func newTestSnapshotManager(t *testing.T) *SnapshotManager {
	t.Helper()
	sm, err := NewSnapshotManager(filepath.Join(t.TempDir(), "snaps"), quietLogger)
	require.NoError(t, err)
	return sm
}

func TestSnapshotLifecycle(t *testing.T) {
	sm := newTestSnapshotManager(t)

	snap, err := sm.CreateSnapshot("run-1", Job{PaperID: 35, File: "p35.xlsx"}, "raw_key_value")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.FileExists(t, filepath.Join(sm.Dir(), snap.ID+".json"))

	require.NoError(t, sm.MarkSnapshotCompleted(snap.ID, 6))
	loaded, err := sm.LoadSnapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, 6, loaded.Committed)
	assert.Equal(t, "p35.xlsx", loaded.File)
	assert.Equal(t, 35, loaded.PaperID)
}

func TestMarkSnapshotFailedKeepsRows(t *testing.T) {
	sm := newTestSnapshotManager(t)
	snap, err := sm.CreateSnapshot("run-1", Job{PaperID: 35}, "raw_key_value")
	require.NoError(t, err)

	ds, err := rawkv.Normalize(35, spreadsheet.Grid{
		{"dose", "effect"},
		{int64(10), math.NaN()},
	})
	require.NoError(t, err)

	cause := &rawkv.CommitError{Table: "raw_key_value", Stage: rawkv.StageChunk, Chunk: 1, Committed: 1000, Err: errors.New("deadlock")}
	require.NoError(t, sm.MarkSnapshotFailed(snap.ID, cause, ds))

	loaded, err := sm.LoadSnapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, loaded.Status)
	assert.Equal(t, 1000, loaded.Committed)
	assert.Contains(t, loaded.Error, "deadlock")
	require.Len(t, loaded.Rows, 2)
	// json numbers decode as float64
	assert.Equal(t, []interface{}{float64(35), float64(1), "dose", "10"}, loaded.Rows[0])
	assert.Equal(t, "NaN", loaded.Rows[1][3])
}

func TestListAndCleanupSnapshots(t *testing.T) {
	sm := newTestSnapshotManager(t)
	old := time.Now().Add(-48 * time.Hour)

	for i, status := range []string{StatusCompleted, StatusFailed, StatusInProgress} {
		s := &Snapshot{ID: status, PaperID: i, Status: status, Timestamp: old.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, sm.saveSnapshot(s))
	}
	recent, err := sm.CreateSnapshot("run-2", Job{PaperID: 9}, "raw_key_value")
	require.NoError(t, err)
	require.NoError(t, sm.MarkSnapshotCompleted(recent.ID, 1))

	// unreadable files are skipped
	require.NoError(t, os.WriteFile(filepath.Join(sm.Dir(), "broken.json"), []byte("{"), 0644))

	snapshots, err := sm.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 4)
	assert.Equal(t, StatusCompleted, snapshots[0].ID)
	assert.Equal(t, recent.ID, snapshots[3].ID)

	cleaned, err := sm.CleanupOldSnapshots(24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	cleaned, err = sm.CleanupOldSnapshots(24*time.Hour, true)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	snapshots, err = sm.ListSnapshots()
	require.NoError(t, err)
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{StatusInProgress, recent.ID}, ids)
}

func TestLoadMissingSnapshot(t *testing.T) {
	sm := newTestSnapshotManager(t)
	_, err := sm.LoadSnapshot("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
