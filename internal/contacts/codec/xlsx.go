package codec

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"contactcleaner/pkg/model"
)

const SheetName = "Contacts"

// EncodeXLSX writes ds as a single-sheet workbook with the header in row 1.
func EncodeXLSX(w io.Writer, ds *model.Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, ds.ColumnNames()); err != nil {
		return err
	}
	for i, record := range ds.Records() {
		if err := writeRow(f, i+2, record); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write xlsx row %d: %w", row, err)
	}
	return nil
}
