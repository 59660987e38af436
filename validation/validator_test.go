package validation

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
)

func newTestValidator(paperID int) *StagedValidator {
	v := NewStagedValidator(paperID)
	v.Logger = monitoring.NewLoggerWithOutput(monitoring.LogLevelError, io.Discard)
	return v
}

func stagedFixture(t *testing.T) *rawkv.StagedDataset {
	t.Helper()
	ds, err := rawkv.Normalize(35, spreadsheet.Grid{
		{"dose", "effect"},
		{int64(10), "high"},
		{20.5, nil},
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return ds
}

func resultFor(results []ValidationResult, check string) (ValidationResult, bool) {
	for _, r := range results {
		if r.Check == check {
			return r, true
		}
	}
	return ValidationResult{}, false
}

func TestValidateStagedValid(t *testing.T) {
	results := newTestValidator(35).Validate(stagedFixture(t))

	if len(results) != 6 {
		t.Fatalf("Expected 6 checks, got %d", len(results))
	}
	for _, r := range results {
		if !r.IsValid {
			t.Errorf("Expected check %s to pass, got %s", r.Check, r.ErrorMessage)
		}
		if r.RowCount != 4 {
			t.Errorf("Expected 4 rows for check %s, got %d", r.Check, r.RowCount)
		}
	}
}

func TestValidateStagedFailures(t *testing.T) {
	testCases := []struct {
		name   string
		check  string
		mutate func(ds *rawkv.StagedDataset)
	}{
		{"wrong header", "header", func(ds *rawkv.StagedDataset) { ds.Header = []string{"a", "b"} }},
		{"missing tuple", "shape", func(ds *rawkv.StagedDataset) { ds.Rows = ds.Rows[:3] }},
		{"unknown key", "keys", func(ds *rawkv.StagedDataset) { ds.Rows[1].Key = "weight" }},
		{"raw id gap", "raw_ids", func(ds *rawkv.StagedDataset) { ds.Rows[2].RawID = 3 }},
		{"foreign paper", "paper_ids", func(ds *rawkv.StagedDataset) { ds.Rows[0].PaperID = 36 }},
		{"nan value", "values", func(ds *rawkv.StagedDataset) { ds.Rows[2].Value = math.NaN() }},
		{"infinite value", "values", func(ds *rawkv.StagedDataset) { ds.Rows[2].Value = math.Inf(1) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := stagedFixture(t)
			tc.mutate(ds)

			result, ok := resultFor(newTestValidator(35).Validate(ds), tc.check)
			if !ok {
				t.Fatalf("Expected a result for check %s", tc.check)
			}
			if result.IsValid {
				t.Errorf("Expected check %s to fail", tc.check)
			}
			if result.ErrorMessage == "" {
				t.Errorf("Expected an error message for check %s", tc.check)
			}
		})
	}
}

func TestValidateHeaderOnly(t *testing.T) {
	ds, err := rawkv.Normalize(35, spreadsheet.Grid{{"dose", "effect"}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	summary := GenerateValidationSummary(newTestValidator(35).Validate(ds), time.Now())
	if summary.Err() != nil {
		t.Errorf("Expected header only data to be valid, got %v", summary.Err())
	}
}

func TestValidateNilDataset(t *testing.T) {
	results := newTestValidator(35).Validate(nil)
	if len(results) != 1 || results[0].IsValid {
		t.Errorf("Expected a single failed result for nil data, got %+v", results)
	}
}

func TestValidationSummary(t *testing.T) {
	startTime := time.Now()

	results := []ValidationResult{
		{Check: "header", IsValid: true, RowCount: 100},
		{Check: "keys", IsValid: true, RowCount: 100},
		{Check: "raw_ids", IsValid: false, RowCount: 100, ErrorMessage: "gap at row 7"},
	}

	summary := GenerateValidationSummary(results, startTime)

	if summary.TotalChecks != 3 {
		t.Errorf("Expected 3 checks, got %d", summary.TotalChecks)
	}

	if summary.ValidChecks != 2 {
		t.Errorf("Expected 2 valid checks, got %d", summary.ValidChecks)
	}

	if summary.InvalidChecks != 1 {
		t.Errorf("Expected 1 invalid check, got %d", summary.InvalidChecks)
	}

	if summary.TotalRows != 100 {
		t.Errorf("Expected 100 rows, got %d", summary.TotalRows)
	}

	if len(summary.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(summary.Errors))
	}

	err := summary.Err()
	if err == nil || !strings.Contains(err.Error(), "raw_ids: gap at row 7") {
		t.Errorf("Expected summary error to name the failed check, got %v", err)
	}

	var buf bytes.Buffer
	summary.Fprint(&buf, "Pre-Commit")
	if !strings.Contains(buf.String(), "==Pre-Commit Validation Summary==") {
		t.Errorf("Expected summary heading, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "-raw_ids: gap at row 7") {
		t.Errorf("Expected error line in summary, got %q", buf.String())
	}
}

func TestValidateStagedConvenience(t *testing.T) {
	results := ValidateStaged(36, stagedFixture(t))
	result, ok := resultFor(results, "paper_ids")
	if !ok || result.IsValid {
		t.Errorf("Expected paper_ids check to fail for a different paper")
	}
}
