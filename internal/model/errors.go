package model

import (
	"fmt"
	"strings"
)

// ValidationError reports input that is structurally unusable:
// missing required columns, an unknown period or an empty symbol.
type ValidationError struct {
	Missing []string // required columns absent from the input
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required columns: " + strings.Join(e.Missing, ", ")
	}
	return "invalid input: " + e.Reason
}

// DataError reports input that is well-formed but holds no usable data.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "no usable data: " + e.Reason
}

// FetchError reports that the external data source returned nothing
// or failed. It is terminal for a render pass.
type FetchError struct {
	Symbol string
	Op     string // "history" or "profile"
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s for %s: no data", e.Op, e.Symbol)
	}
	return fmt.Sprintf("fetch %s for %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
