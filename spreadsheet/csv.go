package spreadsheet

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// CSVReader reads a delimited text file. The sheet name is ignored.
type CSVReader struct{}

func (r *CSVReader) Read(filename, sheet string, opts ...Option) (Grid, error) {
	o := buildOptions(sheet, opts)

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open csv file %s", filename)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = o.Comma
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read csv file %s", filename)
	}

	grid := make(Grid, len(records))
	for i, record := range records {
		cells := make([]interface{}, len(record))
		for j, field := range record {
			cells[j] = field
		}
		grid[i] = cells
	}
	return grid, nil
}
