package tle

import "fmt"

// FormatError reports a two-line element set that does not conform to the
// fixed-column format: a short line or an unparseable field.
type FormatError struct {
	Name  string // satellite name, may be empty
	Field string // offending field or "line1"/"line2" for length failures
	Cause error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("tle %q: bad %s: %v", e.Name, e.Field, e.Cause)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// MissingDataError reports a catalog record that carries neither raw TLE line.
type MissingDataError struct {
	Name string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("tle %q: record has no element lines", e.Name)
}
