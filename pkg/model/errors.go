package model

import "errors"

// DataError reports a dataset that cannot be processed at all.
// Cell-level anomalies are never DataErrors.
type DataError struct {
	Reason string
}

func NewDataError(reason string) *DataError {
	return &DataError{Reason: reason}
}

func (e *DataError) Error() string {
	return "invalid dataset: " + e.Reason
}

func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
