// Package codec converts between contact datasets and their file representations.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/model"
)

const utf8BOM = "\ufeff"

// DecodeCSV reads a header row followed by data rows. Empty fields become null
// cells. Records shorter than the header are padded with nulls; longer ones are
// a structural error.
func DecodeCSV(r io.Reader) (*model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, contactserrors.ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, model.NewDataError(fmt.Sprintf("malformed header: %v", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.NewDataError(fmt.Sprintf("malformed csv: %v", err))
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	return model.NewDataset(header, records)
}

// EncodeCSV writes ds with a header row. Null cells are written as empty fields.
func EncodeCSV(w io.Writer, ds *model.Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(ds.Records()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}
