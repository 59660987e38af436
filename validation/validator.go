package validation

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
)

// Represents the result of one validation check
type ValidationResult struct {
	Check        string
	IsValid      bool
	ErrorMessage string
	RowCount     int64
	TimeStamp    time.Time
}

// checks a staged dataset before it is committed
type StagedValidator struct {
	PaperID int
	Logger  *monitoring.Logger
}

// Creating a new validator instance
func NewStagedValidator(paperID int) *StagedValidator {
	return &StagedValidator{
		PaperID: paperID,
		Logger:  monitoring.DefaultLogger,
	}
}

// ValidateStaged runs the structural checks against ds for paperID.
func ValidateStaged(paperID int, ds *rawkv.StagedDataset) []ValidationResult {
	return NewStagedValidator(paperID).Validate(ds)
}

// running every check, one result per check
func (v *StagedValidator) Validate(ds *rawkv.StagedDataset) []ValidationResult {
	v.Logger.Info("Starting validation of staged data for paper %d", v.PaperID)

	if ds == nil {
		return []ValidationResult{failed("dataset", 0, "no staged data")}
	}

	checks := []struct {
		name string
		fn   func(*rawkv.StagedDataset) string
	}{
		{"header", checkHeader},
		{"shape", checkShape},
		{"keys", checkKeys},
		{"raw_ids", checkRawIDs},
		{"paper_ids", v.checkPaperIDs},
		{"values", checkValues},
	}

	rowCount := int64(len(ds.Rows))
	results := make([]ValidationResult, 0, len(checks))
	for _, c := range checks {
		if msg := c.fn(ds); msg != "" {
			v.Logger.Warn("Validation %s failed: %s", c.name, msg)
			results = append(results, failed(c.name, rowCount, msg))
			continue
		}
		results = append(results, ValidationResult{
			Check:     c.name,
			IsValid:   true,
			RowCount:  rowCount,
			TimeStamp: time.Now(),
		})
	}
	return results
}

func failed(check string, rows int64, msg string) ValidationResult {
	return ValidationResult{
		Check:        check,
		IsValid:      false,
		ErrorMessage: msg,
		RowCount:     rows,
		TimeStamp:    time.Now(),
	}
}

func checkHeader(ds *rawkv.StagedDataset) string {
	if !slices.Equal(ds.Header, rawkv.Properties()) {
		return fmt.Sprintf("header %v, expected %v", ds.Header, rawkv.Properties())
	}
	return ""
}

// every data row expands to exactly one tuple per key
func checkShape(ds *rawkv.StagedDataset) string {
	if len(ds.Keys) == 0 {
		if len(ds.Rows) > 0 {
			return fmt.Sprintf("%d rows for an empty sheet header", len(ds.Rows))
		}
		return ""
	}
	if len(ds.Rows)%len(ds.Keys) != 0 {
		return fmt.Sprintf("%d rows is not a multiple of %d keys", len(ds.Rows), len(ds.Keys))
	}
	return ""
}

func checkKeys(ds *rawkv.StagedDataset) string {
	for i, row := range ds.Rows {
		if !slices.Contains(ds.Keys, row.Key) {
			return fmt.Sprintf("row %d has key %q outside the sheet header", i, row.Key)
		}
	}
	return ""
}

// raw ids run 1..n without gaps, each repeated once per key
func checkRawIDs(ds *rawkv.StagedDataset) string {
	width := len(ds.Keys)
	if width == 0 {
		return ""
	}
	for i, row := range ds.Rows {
		want := i/width + 1
		if row.RawID != want {
			return fmt.Sprintf("row %d has raw_id %d, expected %d", i, row.RawID, want)
		}
	}
	return ""
}

func (v *StagedValidator) checkPaperIDs(ds *rawkv.StagedDataset) string {
	for i, row := range ds.Rows {
		if row.PaperID != v.PaperID {
			return fmt.Sprintf("row %d has paper_id %d, expected %d", i, row.PaperID, v.PaperID)
		}
	}
	return ""
}

// NaN and infinite numbers have no portable column representation
func checkValues(ds *rawkv.StagedDataset) string {
	for i, row := range ds.Rows {
		f, ok := row.Value.(float64)
		if ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return fmt.Sprintf("row %d (%s) holds non-finite value %v", i, row.Key, f)
		}
	}
	return ""
}

// struct for validation result summary
type ValidationSummary struct {
	TotalChecks    int
	ValidChecks    int
	InvalidChecks  int
	TotalRows      int64
	ValidationTime time.Duration
	Errors         []string
}

// creating a summary of the validation result
func GenerateValidationSummary(results []ValidationResult, startTime time.Time) ValidationSummary {
	summary := ValidationSummary{
		TotalChecks:    len(results),
		ValidationTime: time.Since(startTime),
		Errors:         make([]string, 0),
	}

	for _, result := range results {
		if result.RowCount > summary.TotalRows {
			summary.TotalRows = result.RowCount
		}

		if result.IsValid {
			summary.ValidChecks++
		} else {
			summary.InvalidChecks++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", result.Check, result.ErrorMessage))
		}
	}
	return summary
}

// Err is nil when every check passed
func (s ValidationSummary) Err() error {
	if s.InvalidChecks == 0 {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(s.Errors, "; "))
}

// printing the formatted summary
func (s ValidationSummary) Fprint(w io.Writer, phase string) {
	fmt.Fprintf(w, "\n==%s Validation Summary==\n", phase)
	fmt.Fprintf(w, "Total Checks: %d\n", s.TotalChecks)
	fmt.Fprintf(w, "Valid Checks: %d\n", s.ValidChecks)
	fmt.Fprintf(w, "Invalid Checks: %d\n", s.InvalidChecks)
	fmt.Fprintf(w, "Total Rows: %d\n", s.TotalRows)
	fmt.Fprintf(w, "Validation Time: %v\n", s.ValidationTime)

	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range s.Errors {
			fmt.Fprintf(w, "-%s\n", err)
		}
	}
	fmt.Fprintln(w, "--------------")
}
