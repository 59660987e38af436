package spreadsheet

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ExcelReader reads xlsx workbooks through excelize.
type ExcelReader struct{}

func (r *ExcelReader) Read(filename, sheet string, opts ...Option) (Grid, error) {
	o := buildOptions(sheet, opts)

	f, err := excelize.OpenFile(filename, excelize.Options{Password: o.Password})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", filename)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(o.Sheet)
	if err != nil || idx == -1 {
		return nil, errors.Wrapf(ErrSheetNotFound, "%q in %s", o.Sheet, filename)
	}

	// raw values keep numbers free of the cell's display format
	rows, err := f.GetRows(o.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", o.Sheet)
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, raw := range row {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, errors.Wrapf(err, "bad cell coordinates %d,%d", j+1, i+1)
			}
			typ, err := f.GetCellType(o.Sheet, ref)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read type of %s", ref)
			}
			cells[j] = typedValue(typ, raw)
		}
		grid[i] = cells
	}
	return grid, nil
}

func typedValue(typ excelize.CellType, raw string) interface{} {
	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		return raw
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	}
	// numbers usually carry no type attribute at all
	return parseNumber(raw)
}

func parseNumber(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
