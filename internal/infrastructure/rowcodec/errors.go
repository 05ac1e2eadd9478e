package rowcodec

import (
	"errors"
	"fmt"
)

// Row codec error codes
const (
	ErrCodeInvalidEncoding  = "ERR_ROW_INVALID_ENCODING"
	ErrCodeUnknownCharset   = "ERR_ROW_UNKNOWN_CHARSET"
	ErrCodeParsing          = "ERR_ROW_PARSING"
	ErrCodeMissingHeader    = "ERR_ROW_MISSING_HEADER"
	ErrCodeMalformedRow     = "ERR_ROW_MALFORMED"
	ErrCodeMissingLabel     = "ERR_ROW_MISSING_LABEL"
	ErrCodeWidthMismatch    = "ERR_ROW_WIDTH_MISMATCH"
	ErrCodeDuplicatedHeader = "ERR_ROW_DUPLICATED_HEADER"
)

var (
	// ErrEmptyFile is returned when the input holds no bytes at all
	ErrEmptyFile = errors.New("rowcodec: file is empty")

	// ErrInvalidEncoding is returned when the input is not valid UTF-8 after decoding
	ErrInvalidEncoding = errors.New("rowcodec: invalid file encoding")

	// ErrUnknownCharset is returned for a charset name that cannot be resolved
	ErrUnknownCharset = errors.New("rowcodec: unknown charset")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("rowcodec: missing header row")

	// ErrMalformedRow is matched by every RowError raised for a row whose width differs from the header
	ErrMalformedRow = errors.New("rowcodec: malformed row")

	// ErrMissingLabels is returned when required header labels are absent
	ErrMissingLabels = errors.New("rowcodec: required header labels missing")
)

// RowError represents an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Is lets errors.Is match malformed rows against ErrMalformedRow
func (e RowError) Is(target error) bool {
	return target == ErrMalformedRow && e.Code == ErrCodeMalformedRow
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}
