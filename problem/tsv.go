package problem

import (
	"encoding/csv"
	"fmt"
	"os"
)

// tableRow is one data row of a tab-separated table, indexed by
// column name.
type tableRow struct {
	filename string
	line     int
	cells    map[string]string
}

// get returns a required cell.
func (r *tableRow) get(col string) (string, error) {
	v, have := r.cells[col]
	if !have || v == "" {
		return "", r.badf("missing %s", col)
	}
	return v, nil
}

// opt returns an optional cell ("" when absent).
func (r *tableRow) opt(col string) string {
	return r.cells[col]
}

func (r *tableRow) badf(format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d: %s", r.filename, r.line, fmt.Sprintf(format, args...))
}

// readTable reads a tab-separated table with a header line.
func readTable(filename string) ([]*tableRow, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	in := csv.NewReader(f)
	in.Comma = '\t'
	in.FieldsPerRecord = -1
	in.LazyQuotes = true

	records, err := in.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty table", filename)
	}

	header := records[0]
	rows := make([]*tableRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row := &tableRow{
			filename: filename,
			line:     i + 2,
			cells:    make(map[string]string, len(header)),
		}
		for j, col := range header {
			if j < len(record) {
				row.cells[col] = record[j]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
