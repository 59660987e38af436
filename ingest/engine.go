package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/SusheelSathyaraj/PaperPipe/database"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
	"github.com/SusheelSathyaraj/PaperPipe/validation"
)

// Model is a dataset that can be loaded from a sheet and committed to its table
type Model interface {
	Load(filename string, opts ...spreadsheet.Option) error
	Commit(ctx context.Context) (*rawkv.StagedDataset, error)
	TableName() string
	Data() *rawkv.StagedDataset
}

// builds the model of one paper
type ModelFactory func(paperID int) (Model, error)

// NewRawKVFactory binds every paper to the same reader, target and tables.
func NewRawKVFactory(reader spreadsheet.Reader, target database.TargetDatabase, tables database.TableRegistry, opts ...rawkv.Option) ModelFactory {
	return func(paperID int) (Model, error) {
		m, err := rawkv.New(paperID, reader, target, tables, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// one paper to ingest
type Job struct {
	PaperID  int
	File     string
	Sheet    string // overrides the model's sheet when set
	Password string // for encrypted workbooks
}

// config for an ingest run
type EngineConfig struct {
	Target       string
	ValidateData bool
	StopOnError  bool
}

// Ingest process keeper
type Engine struct {
	Config    EngineConfig
	NewModel  ModelFactory
	Snapshots *SnapshotManager // optional
	Report    io.Writer        // receives validation summaries when set
	Logger    *monitoring.Logger
}

// outcome for one paper
type PaperResult struct {
	PaperID       int
	File          string
	Table         string
	Success       bool
	RowsStaged    int
	RowsCommitted int
	SnapshotID    string
	Validation    []validation.ValidationResult
	Error         string
	Duration      time.Duration
}

// Results of the run
type Result struct {
	RunID              string
	Success            bool
	TotalPapers        int
	FailedPapers       int
	TotalRowsCommitted int64
	Papers             []PaperResult
	Errors             []string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// creating a new ingest engine
func NewEngine(config EngineConfig, factory ModelFactory) *Engine {
	return &Engine{
		Config:   config,
		NewModel: factory,
		Logger:   monitoring.DefaultLogger,
	}
}

// running load, validation and commit for every job in order
func (e *Engine) Run(ctx context.Context, jobs []Job) (*Result, error) {
	result := &Result{
		RunID:       uuid.NewString(),
		StartTime:   time.Now(),
		TotalPapers: len(jobs),
		Papers:      make([]PaperResult, 0, len(jobs)),
		Errors:      make([]string, 0),
	}

	e.Logger.Info("Starting ingest run %s of %d papers into %s", result.RunID, len(jobs), e.Config.Target)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err.Error())
			e.finish(result)
			return result, err
		}

		paper := e.runJob(ctx, result.RunID, job)
		result.Papers = append(result.Papers, paper)
		result.TotalRowsCommitted += int64(paper.RowsCommitted)

		if !paper.Success {
			result.FailedPapers++
			result.Errors = append(result.Errors, fmt.Sprintf("paper %d: %s", job.PaperID, paper.Error))
			if e.Config.StopOnError {
				break
			}
		}
	}

	e.finish(result)
	if result.FailedPapers > 0 {
		return result, fmt.Errorf("ingest failed for %d of %d papers", result.FailedPapers, result.TotalPapers)
	}

	e.Logger.Info("Ingest run %s completed successfully in %v, %d rows committed", result.RunID, result.Duration, result.TotalRowsCommitted)
	return result, nil
}

func (e *Engine) finish(result *Result) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = result.FailedPapers == 0 && len(result.Errors) == 0
}

func (e *Engine) runJob(ctx context.Context, runID string, job Job) PaperResult {
	start := time.Now()
	paper := PaperResult{PaperID: job.PaperID, File: job.File}
	defer func() {
		paper.Duration = time.Since(start)
	}()

	model, err := e.NewModel(job.PaperID)
	if err != nil {
		paper.Error = fmt.Sprintf("failed to create model, %v", err)
		return paper
	}
	paper.Table = model.TableName()

	//Step1: load the sheet
	var opts []spreadsheet.Option
	if job.Sheet != "" {
		opts = append(opts, spreadsheet.WithSheet(job.Sheet))
	}
	if job.Password != "" {
		opts = append(opts, spreadsheet.WithPassword(job.Password))
	}
	if err := model.Load(job.File, opts...); err != nil {
		paper.Error = err.Error()
		e.Logger.Error("Load failed for paper %d: %v", job.PaperID, err)
		return paper
	}
	paper.RowsStaged = len(model.Data().Rows)

	//Step2: validate staged data
	if e.Config.ValidateData {
		validationStart := time.Now()
		paper.Validation = validation.ValidateStaged(job.PaperID, model.Data())

		summary := validation.GenerateValidationSummary(paper.Validation, validationStart)
		if e.Report != nil {
			summary.Fprint(e.Report, fmt.Sprintf("Paper %d", job.PaperID))
		}
		if err := summary.Err(); err != nil {
			paper.Error = err.Error()
			e.Logger.Error("Validation failed for paper %d: %v", job.PaperID, err)
			return paper
		}
	}

	//Step3: commit, with a snapshot to recover from a partial write
	var snapshot *Snapshot
	if e.Snapshots != nil {
		snapshot, err = e.Snapshots.CreateSnapshot(runID, job, paper.Table)
		if err != nil {
			e.Logger.Warn("Could not create snapshot for paper %d, %v", job.PaperID, err)
		} else {
			paper.SnapshotID = snapshot.ID
		}
	}

	ds, err := model.Commit(ctx)
	if err != nil {
		paper.Error = err.Error()
		var commitErr *rawkv.CommitError
		if errors.As(err, &commitErr) {
			paper.RowsCommitted = commitErr.Committed
		}
		if snapshot != nil {
			if serr := e.Snapshots.MarkSnapshotFailed(snapshot.ID, err, ds); serr != nil {
				e.Logger.Warn("Could not update snapshot %s, %v", snapshot.ID, serr)
			}
		}
		return paper
	}

	paper.RowsCommitted = len(ds.Rows)
	paper.Success = true
	if snapshot != nil {
		if serr := e.Snapshots.MarkSnapshotCompleted(snapshot.ID, len(ds.Rows)); serr != nil {
			e.Logger.Warn("Could not update snapshot %s, %v", snapshot.ID, serr)
		}
	}
	e.Logger.Info("Paper %d committed, %d rows to %s", job.PaperID, paper.RowsCommitted, paper.Table)
	return paper
}
