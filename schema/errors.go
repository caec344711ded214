package schema

import "fmt"

// SchemaBuildError reports an invalid Column, Table, or Schema construction.
// It is always returned before any database I/O takes place.
type SchemaBuildError struct {
	// Subject names the table or column the error concerns.
	Subject string
	Reason  string
}

func (e *SchemaBuildError) Error() string {
	return fmt.Sprintf("isqlite: invalid schema (%s): %s", e.Subject, e.Reason)
}

func buildErrf(subject, format string, args ...any) *SchemaBuildError {
	return &SchemaBuildError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}
