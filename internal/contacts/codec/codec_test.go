package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/model"
)

func TestDecodeCSV(t *testing.T) {
	input := "\ufeffFirst Name, Email ,Phone\n" +
		"Alice,a@x.com,555\n" +
		"\"Smith, Bob\",,\n" +
		",,\n" +
		"Carol\n"

	ds, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"First Name", "Email", "Phone"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.NumRows(), "blank record is skipped")
	assert.Equal(t, "Smith, Bob", ds.Cell("First Name", 1).Value)
	assert.False(t, ds.Cell("Email", 1).Valid)
	assert.False(t, ds.Cell("Phone", 2).Valid, "short record is padded with nulls")
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantEmpty bool
	}{
		{name: "empty input", input: "", wantEmpty: true},
		{name: "whitespace only", input: " \n\n", wantEmpty: true},
		{name: "record longer than header", input: "A\n1,2\n"},
		{name: "duplicate header", input: "A,A\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantEmpty {
				assert.True(t, errors.Is(err, contactserrors.ErrEmptyFile))
			} else {
				assert.True(t, model.IsDataError(err), "got %v", err)
			}
		})
	}
}

func TestDecodeCSV_HeaderOnly(t *testing.T) {
	ds, err := DecodeCSV(strings.NewReader("First Name,Email\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, ds.NumRows())
	assert.True(t, model.IsDataError(ds.Validate()))
}

func TestEncodeCSV_RoundTripsNulls(t *testing.T) {
	ds, err := model.NewDataset([]string{"Name", "Email"}, [][]string{{"Alice", ""}, {"Bob", "b@x.com"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, ds))
	assert.Equal(t, "Name,Email\nAlice,\nBob,b@x.com\n", buf.String())

	back, err := DecodeCSV(&buf)
	require.NoError(t, err)
	assert.True(t, back.Equal(ds))
}

func TestEncodeXLSX(t *testing.T) {
	ds, err := model.NewDataset([]string{"First Name", "Email"}, [][]string{{"Alice", "a@x.com"}, {"Bob", "b@x.com"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeXLSX(&buf, ds))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"First Name", "Email"},
		{"Alice", "a@x.com"},
		{"Bob", "b@x.com"},
	}, rows)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatCSV},
		{in: "csv", want: FormatCSV},
		{in: " XLSX ", want: FormatXLSX},
		{in: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, contactserrors.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCSVFilename(t *testing.T) {
	assert.True(t, IsCSVFilename("contacts.csv"))
	assert.True(t, IsCSVFilename("CONTACTS.CSV"))
	assert.False(t, IsCSVFilename("contacts.xlsx"))
	assert.False(t, IsCSVFilename("csv"))
}
