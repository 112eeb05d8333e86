package invertedindex

import "errors"

// ErrEmptyQuery is returned when the query string is empty after
// trimming (spec.md §8 "Empty query → EmptyQuery error").
var ErrEmptyQuery = errors.New("invertedindex: empty query")

// ErrParse wraps a query-parse failure; both are non-fatal per spec.md
// §4.1 "Query parse failures return EmptyQuery/Parse errors (non-fatal)".
var ErrParse = errors.New("invertedindex: query parse error")
