package query

import (
	"context"
	"fmt"

	"github.com/ssargent/slow5/pkg/index"
	"github.com/ssargent/slow5/pkg/slow5"
)

// SimpleQueryEngine answers field queries over one file using secondary
// indexes. Indexes are built on first use and kept for the life of the
// engine. It is not safe for concurrent use, like the Reader it wraps.
type SimpleQueryEngine struct {
	indexManager *index.IndexManager
	source       Source
}

var _ QueryEngine = (*SimpleQueryEngine)(nil)

// NewSimpleQueryEngine creates a new query engine. A nil indexManager gets a
// fresh one.
func NewSimpleQueryEngine(source Source, indexManager *index.IndexManager) *SimpleQueryEngine {
	if indexManager == nil {
		indexManager = index.NewIndexManager(index.DefaultOrder)
	}
	return &SimpleQueryEngine{
		indexManager: indexManager,
		source:       source,
	}
}

// ExecuteQuery returns the reads matching every query, in file order
func (qe *SimpleQueryEngine) ExecuteQuery(ctx context.Context, queries ...FieldQuery) (QueryIterator, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no conditions", ErrInvalidQuery)
	}
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	if err := qe.prepare(queries); err != nil {
		return nil, err
	}

	var matches map[string]struct{}
	for _, q := range queries {
		ids, err := qe.search(q)
		if err != nil {
			return nil, err
		}
		matches = intersect(matches, ids)
		if len(matches) == 0 {
			break
		}
	}
	return qe.inFileOrder(ctx, matches)
}

// ExecuteRangeQuery executes a range query between two conditions on the
// same field, such as median_before>=100 and median_before<200
func (qe *SimpleQueryEngine) ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start query: %w", err)
	}
	if err := endQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}

	// Ensure both queries are for the same field
	if startQuery.Field != endQuery.Field {
		return nil, fmt.Errorf("%w: range query fields must match: %s != %s", ErrInvalidQuery, startQuery.Field, endQuery.Field)
	}
	if startQuery.Operator != ">" && startQuery.Operator != ">=" {
		return nil, fmt.Errorf("%w: range start must use > or >=, got %s", ErrInvalidQuery, startQuery.Operator)
	}
	if endQuery.Operator != "<" && endQuery.Operator != "<=" {
		return nil, fmt.Errorf("%w: range end must use < or <=, got %s", ErrInvalidQuery, endQuery.Operator)
	}
	return qe.ExecuteQuery(ctx, startQuery, endQuery)
}

// ReadIDs runs ExecuteQuery and collects the matching ids
func (qe *SimpleQueryEngine) ReadIDs(ctx context.Context, queries ...FieldQuery) ([]string, error) {
	it, err := qe.ExecuteQuery(ctx, queries...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	ids := []string{}
	for it.Next() {
		ids = append(ids, it.Result().ReadID)
	}
	return ids, nil
}

// prepare checks every queried field and builds the missing indexes in a
// single pass over the file
func (qe *SimpleQueryEngine) prepare(queries []FieldQuery) error {
	reg := qe.source.Registry()
	fields := make([]string, 0, len(queries))
	for _, q := range queries {
		d, ok := reg.Describe(q.Field)
		if !ok {
			return fmt.Errorf("%w: %w: %s", ErrInvalidQuery, slow5.ErrUnknownField, q.Field)
		}
		if d.Type.IsArray() {
			return fmt.Errorf("%w: %w: %s is %s", ErrInvalidQuery, index.ErrUnindexable, q.Field, d.Type)
		}
		fields = append(fields, q.Field)
	}
	return qe.indexManager.Build(qe.source, fields...)
}

// search looks up the ids matching one condition
func (qe *SimpleQueryEngine) search(q FieldQuery) ([]string, error) {
	idx, err := qe.indexManager.GetIndex(q.Field)
	if err != nil {
		return nil, err
	}

	var start, end index.Bound
	switch q.Operator {
	case "=":
		start = index.Bound{Value: q.Value, Inclusive: true}
		end = start
	case ">", ">=":
		start = index.Bound{Value: q.Value, Inclusive: q.Operator == ">="}
	case "<", "<=":
		end = index.Bound{Value: q.Value, Inclusive: q.Operator == "<="}
	default:
		return nil, fmt.Errorf("%w: unsupported operator: %s", ErrInvalidQuery, q.Operator)
	}

	ids, err := idx.SearchRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return ids, nil
}

// intersect narrows acc to ids. A nil acc means no condition applied yet.
func intersect(acc map[string]struct{}, ids []string) map[string]struct{} {
	if acc == nil {
		acc = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			acc[id] = struct{}{}
		}
		return acc
	}
	next := make(map[string]struct{}, min(len(acc), len(ids)))
	for _, id := range ids {
		if _, ok := acc[id]; ok {
			next[id] = struct{}{}
		}
	}
	return next
}

// inFileOrder orders matches the way the reads appear in the file
func (qe *SimpleQueryEngine) inFileOrder(ctx context.Context, matches map[string]struct{}) (QueryIterator, error) {
	results := make([]QueryResult, 0, len(matches))
	if len(matches) == 0 {
		return &simpleIterator{results: results}, nil
	}

	it := qe.source.ReadIDs()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := matches[it.ReadID()]; ok {
			results = append(results, QueryResult{ReadID: it.ReadID()})
			if len(results) == len(matches) {
				break
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return &simpleIterator{results: results}, nil
}

// simpleIterator implements QueryIterator for basic result streaming
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index < len(it.results) {
		it.index++
		return true
	}
	return false
}

func (it *simpleIterator) Result() QueryResult {
	if it.index > 0 && it.index <= len(it.results) {
		return it.results[it.index-1]
	}
	return QueryResult{}
}

func (it *simpleIterator) Close() error {
	it.results = nil
	return nil
}
