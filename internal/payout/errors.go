package payout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField means a key required for aggregation is absent.
	ErrMissingField = errors.New("missing field")
	// ErrMalformedRecord means a value has the wrong JSON shape or is not a
	// non-negative integer amount.
	ErrMalformedRecord = errors.New("malformed record")
)

// RecordError locates an aggregation failure inside the erasPayouts array.
// Era and Record are zero-based indexes; -1 means the error is above that level.
type RecordError struct {
	Era    int
	Record int
	Field  string
	Err    error
}

func (e *RecordError) Error() string {
	var b strings.Builder
	b.WriteString("erasPayouts")
	if e.Era >= 0 {
		fmt.Fprintf(&b, "[%d]", e.Era)
	}
	if e.Record >= 0 {
		fmt.Fprintf(&b, ".payouts[%d]", e.Record)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ".%s", e.Field)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *RecordError) Unwrap() error { return e.Err }

func missing(era, record int, field string) error {
	return &RecordError{Era: era, Record: record, Field: field, Err: ErrMissingField}
}

func malformed(era, record int, field string, cause error) error {
	return &RecordError{Era: era, Record: record, Field: field, Err: fmt.Errorf("%w: %v", ErrMalformedRecord, cause)}
}
