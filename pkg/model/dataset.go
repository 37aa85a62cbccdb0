package model

import (
	"fmt"
	"strings"
)

// Cell is a single table value. A cell is either null (absent in the source)
// or holds a string, which may itself be empty.
type Cell struct {
	Value string
	Valid bool
}

func String(s string) Cell {
	return Cell{Value: s, Valid: true}
}

func Null() Cell {
	return Cell{}
}

// IsBlank reports whether the cell is null or holds only whitespace.
func (c Cell) IsBlank() bool {
	return !c.Valid || strings.TrimSpace(c.Value) == ""
}

// Text returns the cell value, or "" for a null cell.
func (c Cell) Text() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

type Column struct {
	Name  string
	Cells []Cell
}

// Dataset is an ordered set of uniquely named columns sharing one row count.
// Every method that changes shape returns a new Dataset; the receiver is never modified.
type Dataset struct {
	columns []Column
	rows    int
}

// NewDataset builds a dataset from a header and string records.
// Short records are padded with null cells; empty fields become null cells.
func NewDataset(header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, NewDataError("dataset has no columns")
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Cells: make([]Cell, 0, len(records))}
	}

	for r, record := range records {
		if len(record) > len(header) {
			return nil, NewDataError(fmt.Sprintf("row %d has %d fields, header has %d", r+1, len(record), len(header)))
		}
		for c := range columns {
			cell := Null()
			if c < len(record) && record[c] != "" {
				cell = String(record[c])
			}
			columns[c].Cells = append(columns[c].Cells, cell)
		}
	}

	return FromColumns(columns...)
}

// FromColumns assembles a dataset from columns, validating names and alignment.
// The cells are copied.
func FromColumns(columns ...Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, NewDataError("dataset has no columns")
	}

	seen := make(map[string]struct{}, len(columns))
	rows := len(columns[0].Cells)
	out := make([]Column, len(columns))

	for i, col := range columns {
		if _, dup := seen[col.Name]; dup {
			return nil, NewDataError(fmt.Sprintf("duplicate column name %q", col.Name))
		}
		seen[col.Name] = struct{}{}

		if len(col.Cells) != rows {
			return nil, NewDataError(fmt.Sprintf("column %q has %d rows, expected %d", col.Name, len(col.Cells), rows))
		}
		out[i] = Column{Name: col.Name, Cells: append([]Cell(nil), col.Cells...)}
	}

	return &Dataset{columns: out, rows: rows}, nil
}

func (d *Dataset) NumRows() int {
	return d.rows
}

func (d *Dataset) NumCols() int {
	return len(d.columns)
}

func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the named column or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, col := range d.columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Column returns a copy of the named column's cells.
func (d *Dataset) Column(name string) ([]Cell, bool) {
	i := d.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return append([]Cell(nil), d.columns[i].Cells...), true
}

// Cell returns the cell of the named column at row, or a null cell when the column is absent.
func (d *Dataset) Cell(name string, row int) Cell {
	i := d.ColumnIndex(name)
	if i < 0 || row < 0 || row >= d.rows {
		return Null()
	}
	return d.columns[i].Cells[row]
}

func (d *Dataset) Clone() *Dataset {
	columns := make([]Column, len(d.columns))
	for i, col := range d.columns {
		columns[i] = Column{Name: col.Name, Cells: append([]Cell(nil), col.Cells...)}
	}
	return &Dataset{columns: columns, rows: d.rows}
}

// MapCells applies fn to every cell of every column.
func (d *Dataset) MapCells(fn func(Cell) Cell) *Dataset {
	out := d.Clone()
	for _, col := range out.columns {
		for r := range col.Cells {
			col.Cells[r] = fn(col.Cells[r])
		}
	}
	return out
}

// MapColumn applies fn to the cells of the named column. An absent column yields an unchanged copy.
func (d *Dataset) MapColumn(name string, fn func(Cell) Cell) *Dataset {
	out := d.Clone()
	i := out.ColumnIndex(name)
	if i < 0 {
		return out
	}
	cells := out.columns[i].Cells
	for r := range cells {
		cells[r] = fn(cells[r])
	}
	return out
}

// FilterRows keeps the rows for which keep returns true, removing the same
// row index from every column.
func (d *Dataset) FilterRows(keep func(row int) bool) *Dataset {
	kept := make([]int, 0, d.rows)
	for r := 0; r < d.rows; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}

	columns := make([]Column, len(d.columns))
	for i, col := range d.columns {
		cells := make([]Cell, len(kept))
		for j, r := range kept {
			cells[j] = col.Cells[r]
		}
		columns[i] = Column{Name: col.Name, Cells: cells}
	}
	return &Dataset{columns: columns, rows: len(kept)}
}

// DropColumns removes the named columns. Names not present are ignored.
func (d *Dataset) DropColumns(names ...string) *Dataset {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	columns := make([]Column, 0, len(d.columns))
	for _, col := range d.columns {
		if _, ok := drop[col.Name]; ok {
			continue
		}
		columns = append(columns, Column{Name: col.Name, Cells: append([]Cell(nil), col.Cells...)})
	}
	return &Dataset{columns: columns, rows: d.rows}
}

// InsertColumn places a new column at position at (clamped to the valid range).
func (d *Dataset) InsertColumn(at int, col Column) (*Dataset, error) {
	if d.HasColumn(col.Name) {
		return nil, NewDataError(fmt.Sprintf("duplicate column name %q", col.Name))
	}
	if len(col.Cells) != d.rows {
		return nil, NewDataError(fmt.Sprintf("column %q has %d rows, expected %d", col.Name, len(col.Cells), d.rows))
	}
	at = max(0, min(at, len(d.columns)))

	columns := make([]Column, 0, len(d.columns)+1)
	for i, c := range d.columns {
		if i == at {
			columns = append(columns, Column{Name: col.Name, Cells: append([]Cell(nil), col.Cells...)})
		}
		columns = append(columns, Column{Name: c.Name, Cells: append([]Cell(nil), c.Cells...)})
	}
	if at == len(d.columns) {
		columns = append(columns, Column{Name: col.Name, Cells: append([]Cell(nil), col.Cells...)})
	}
	return &Dataset{columns: columns, rows: d.rows}, nil
}

// Head returns a dataset holding at most n leading rows.
func (d *Dataset) Head(n int) *Dataset {
	return d.FilterRows(func(row int) bool { return row < n })
}

// Records renders the rows as strings, null cells as "".
func (d *Dataset) Records() [][]string {
	records := make([][]string, d.rows)
	for r := 0; r < d.rows; r++ {
		record := make([]string, len(d.columns))
		for c, col := range d.columns {
			record[c] = col.Cells[r].Text()
		}
		records[r] = record
	}
	return records
}

// Equal reports whether both datasets have the same columns and cells.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil || d.rows != other.rows || len(d.columns) != len(other.columns) {
		return false
	}
	for i, col := range d.columns {
		oc := other.columns[i]
		if col.Name != oc.Name {
			return false
		}
		for r := range col.Cells {
			if col.Cells[r] != oc.Cells[r] {
				return false
			}
		}
	}
	return true
}

// Validate checks the structural requirements for running stages over the dataset.
func (d *Dataset) Validate() error {
	if d == nil || len(d.columns) == 0 {
		return NewDataError("dataset has no columns")
	}
	if d.rows == 0 {
		return NewDataError("dataset has no rows")
	}
	return nil
}
