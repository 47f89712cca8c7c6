package scorecard

import (
	"fmt"
	"strings"
)

// UnreadableFileError means the byte stream is not a well-formed spreadsheet
// container. It is fatal for that file only.
type UnreadableFileError struct {
	Filename string
	Err      error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %q: %v", e.Filename, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

// UnknownFormatError means no detection rule matched the workbook's sheets.
// The file is excluded from the valid set.
type UnknownFormatError struct {
	Filename   string
	SheetNames []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unrecognized scorecard format in %q (sheets: %s)",
		e.Filename, strings.Join(e.SheetNames, ", "))
}

// MissingRequiredFieldError names a required value (facility, month) that
// neither the workbook nor the caller supplied. It is recoverable through an
// override.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
