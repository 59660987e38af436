// Package spreadsheet reads one sheet of a workbook into a grid of typed cells.
//
// Cells come back as int64 for integral numbers, float64 for other numbers,
// bool, string, or nil for blank cells. CSV files carry no type information,
// so every csv cell is a string.
//
// Errors are wrapped with github.com/pkg/errors and carry the stack of the
// failing read; match them with errors.Is against ErrSheetNotFound and
// ErrUnsupportedFormat, or unwrap with errors.Cause. Callers outside this
// package wrap with fmt.Errorf and %w as usual.
package spreadsheet

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Grid is the ordered rows of one sheet. Rows may be ragged.
type Grid [][]interface{}

var (
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// Options are the pass-through settings a caller can forward to a Reader.
type Options struct {
	Sheet    string
	Password string
	Comma    rune
}

type Option func(*Options)

// WithSheet overrides the sheet the caller asked for.
func WithSheet(name string) Option {
	return func(o *Options) {
		o.Sheet = name
	}
}

// WithPassword opens an encrypted workbook.
func WithPassword(password string) Option {
	return func(o *Options) {
		o.Password = password
	}
}

// WithComma sets the csv field delimiter.
func WithComma(r rune) Option {
	return func(o *Options) {
		o.Comma = r
	}
}

// Resolve applies opts on top of the requested sheet.
func Resolve(sheet string, opts ...Option) Options {
	return buildOptions(sheet, opts)
}

func buildOptions(sheet string, opts []Option) Options {
	o := Options{Sheet: sheet, Comma: ','}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader yields the grid of one sheet of a file.
type Reader interface {
	Read(filename, sheet string, opts ...Option) (Grid, error)
}

// FileReader picks the excel or csv reader from the file extension.
type FileReader struct {
	excel *ExcelReader
	csv   *CSVReader
}

func NewReader() *FileReader {
	return &FileReader{
		excel: &ExcelReader{},
		csv:   &CSVReader{},
	}
}

func (r *FileReader) Read(filename, sheet string, opts ...Option) (Grid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return r.excel.Read(filename, sheet, opts...)
	case ".csv":
		return r.csv.Read(filename, sheet, opts...)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", filename)
	}
}
