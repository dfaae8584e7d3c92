package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ssargent/slow5/pkg/index"
	"github.com/ssargent/slow5/pkg/slow5"
)

// ErrInvalidQuery is returned for malformed queries and for queries the
// file's fields cannot answer
var ErrInvalidQuery = errors.New("invalid query")

// FieldQuery represents a single condition on an auxiliary field
type FieldQuery struct {
	Field    string      // Field name to query (e.g., "median_before", "end_reason")
	Operator string      // Comparison operator: "=", ">", "<", ">=", "<="
	Value    interface{} // Value to compare against
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("%w: field name cannot be empty", ErrInvalidQuery)
	}
	if q.Operator == "" {
		return fmt.Errorf("%w: operator cannot be empty", ErrInvalidQuery)
	}
	switch q.Operator {
	case "=", ">", "<", ">=", "<=":
	default:
		return fmt.Errorf("%w: invalid operator: %s", ErrInvalidQuery, q.Operator)
	}
	if q.Value == nil {
		return fmt.Errorf("%w: %s has no value", ErrInvalidQuery, q.Field)
	}
	return nil
}

func (q FieldQuery) String() string {
	return fmt.Sprintf("%s%s%v", q.Field, q.Operator, q.Value)
}

// ParseFieldQuery parses an expression such as "median_before>=200" or
// "end_reason=signal_positive". The value is kept as text and converted
// when compared against the field.
func ParseFieldQuery(expr string) (FieldQuery, error) {
	i := strings.IndexAny(expr, "<>=")
	if i < 0 {
		return FieldQuery{}, fmt.Errorf("%w: %q has no operator", ErrInvalidQuery, expr)
	}
	op := expr[i : i+1]
	rest := expr[i+1:]
	switch {
	case op != "=" && strings.HasPrefix(rest, "="):
		op += "="
		rest = rest[1:]
	case op == "=" && strings.HasPrefix(rest, "="):
		rest = rest[1:]
	}

	q := FieldQuery{
		Field:    strings.TrimSpace(expr[:i]),
		Operator: op,
	}
	v := strings.TrimSpace(rest)
	if strings.ContainsAny(v[:min(len(v), 1)], "<>=") {
		return FieldQuery{}, fmt.Errorf("%w: %q has a stray operator in its value", ErrInvalidQuery, expr)
	}
	if v != "" {
		q.Value = v
	}
	if err := q.Validate(); err != nil {
		return FieldQuery{}, fmt.Errorf("%q: %w", expr, err)
	}
	return q, nil
}

// ParseFieldQueries parses every expression in exprs
func ParseFieldQueries(exprs []string) ([]FieldQuery, error) {
	queries := make([]FieldQuery, 0, len(exprs))
	for _, expr := range exprs {
		q, err := ParseFieldQuery(expr)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// Source is what the engine needs from an open file
type Source interface {
	index.Source
	ReadIDs() *slow5.ReadIDIter
}

// QueryResult represents a single query result
type QueryResult struct {
	ReadID string
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, queries ...FieldQuery) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error)
}
