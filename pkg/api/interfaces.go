package api

import "github.com/ssargent/slow5/pkg/slow5"

// ReadSource is the part of *slow5.Reader the server uses
type ReadSource interface {
	Path() string
	Header() *slow5.Header
	Fields() []slow5.FieldDescriptor
	Get(readID string) (*slow5.Record, error)
	ReadIDs() *slow5.ReadIDIter
	Registry() *slow5.Registry
	Records() *slow5.RecordIter
}

var _ ReadSource = (*slow5.Reader)(nil)
