package codec

import (
	"fmt"
	"io"
	"strings"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/model"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", contactserrors.ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Extension() string {
	return "." + string(f)
}

func Encode(w io.Writer, ds *model.Dataset, format Format) error {
	switch format {
	case FormatXLSX:
		return EncodeXLSX(w, ds)
	case FormatCSV:
		return EncodeCSV(w, ds)
	}
	return fmt.Errorf("%w: %q", contactserrors.ErrUnknownFormat, format)
}

// IsCSVFilename reports whether name carries a .csv extension, ignoring case.
func IsCSVFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
}
