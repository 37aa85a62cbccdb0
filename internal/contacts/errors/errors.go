package errors

import "errors"

var (
	ErrNoUpload = errors.New("no contacts file uploaded")

	ErrNoCleanedData = errors.New("no cleaned contacts available")

	ErrUnsupportedFile = errors.New("only CSV files are supported")

	ErrEmptyFile = errors.New("uploaded file is empty")

	ErrSessionInvalid = errors.New("session cookie is invalid")

	ErrUnknownFormat = errors.New("unknown export format")
)
