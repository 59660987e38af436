package rawkv

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
)

// property names of the long-format table, in column order
var properties = [...]string{"paper_id", "raw_id", "key", "value"}

// Properties returns the column names of a NormalizedRow.
func Properties() []string {
	return append([]string(nil), properties[:]...)
}

// NormalizedRow is one cell of the source sheet tagged with where it came from.
type NormalizedRow struct {
	PaperID int
	RawID   int // 1-based data row index
	Key     string
	Value   interface{}
}

func (r NormalizedRow) Values() []interface{} {
	return []interface{}{r.PaperID, r.RawID, r.Key, r.Value}
}

// StagedDataset is the property header followed by the normalized rows of one
// loaded sheet, in row-major order.
type StagedDataset struct {
	Header []string
	Keys   []string // header row of the source sheet
	Rows   []NormalizedRow
}

// Len counts the header plus the data rows.
func (d *StagedDataset) Len() int {
	return 1 + len(d.Rows)
}

func (d *StagedDataset) HeaderRow() []interface{} {
	header := make([]interface{}, len(d.Header))
	for i, h := range d.Header {
		header[i] = h
	}
	return header
}

// Table renders the dataset with the header as element 0.
func (d *StagedDataset) Table() [][]interface{} {
	table := make([][]interface{}, 0, d.Len())
	table = append(table, d.HeaderRow())
	for _, row := range d.Rows {
		table = append(table, row.Values())
	}
	return table
}

// Normalize turns a sheet grid into long-format rows. Row 0 is the header;
// short rows are padded with nil and cells past the header width are dropped.
func Normalize(paperID int, grid spreadsheet.Grid) (*StagedDataset, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}

	keys := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		keys[i] = headerString(cell)
	}

	dataRows := grid[1:]
	rows := make([]NormalizedRow, 0, len(dataRows)*len(keys))
	for r, cells := range dataRows {
		for c, key := range keys {
			var value interface{}
			if c < len(cells) {
				value = coerceValue(cells[c])
			}
			rows = append(rows, NormalizedRow{
				PaperID: paperID,
				RawID:   r + 1,
				Key:     key,
				Value:   value,
			})
		}
	}

	return &StagedDataset{
		Header: Properties(),
		Keys:   keys,
		Rows:   rows,
	}, nil
}

// integers of any kind become their decimal string, everything else is kept
func coerceValue(v interface{}) interface{} {
	if s, ok := integerString(v); ok {
		return s
	}
	return v
}

func integerString(v interface{}) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	}
	return "", false
}

// headerString renders a header cell as a column key. Blank cells become ""
// and bools become "true"/"false", not the "None"/"True"/"False" spelling of
// the paper scripts, so keys from such sheets differ from older loads.
func headerString(v interface{}) string {
	if s, ok := integerString(v); ok {
		return s
	}
	switch h := v.(type) {
	case nil:
		return ""
	case string:
		return h
	case float64:
		return strconv.FormatFloat(h, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(h), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(h)
	case []byte:
		return string(h)
	}
	return fmt.Sprint(v)
}
