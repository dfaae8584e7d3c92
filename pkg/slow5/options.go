package slow5

import (
	"github.com/ssargent/slow5/pkg/codec"
)

// RecordCompression selects the block codec of a BLOW5 file
type RecordCompression = codec.RecordCompression

// SignalCompression selects the raw signal codec of a BLOW5 file
type SignalCompression = codec.SignalCompression

const (
	RecordNone   = codec.RecordNone
	RecordZlib   = codec.RecordZlib
	RecordZstd   = codec.RecordZstd
	RecordSnappy = codec.RecordSnappy

	SignalNone        = codec.SignalNone
	SignalZigzagDelta = codec.SignalZigzagDelta
)

type attribute struct {
	key, value string
	group      uint32
}

// Options is the configuration of a Reader or Writer before it opens. It
// holds only plain values and may be built on one goroutine and opened on
// another.
type Options struct {
	readGroups    uint32
	readGroupsSet bool
	attributes    []attribute
	fields        []FieldDescriptor

	recordCompression    RecordCompression
	recordCompressionSet bool
	signalCompression    SignalCompression
	signalCompressionSet bool

	persistentIndex bool
	bufferSize      int
	metrics         *Metrics
}

// Option configures a Reader or Writer
type Option func(*Options)

// NewOptions applies opts to the defaults
func NewOptions(opts ...Option) Options {
	o := Options{readGroups: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithReadGroups sets the number of read groups of a new file
func WithReadGroups(n uint32) Option {
	return func(o *Options) {
		o.readGroups = n
		o.readGroupsSet = true
	}
}

// WithAttribute sets a header attribute of a new file for one read group
func WithAttribute(key, value string, group uint32) Option {
	return func(o *Options) {
		o.attributes = append(o.attributes, attribute{key: key, value: value, group: group})
	}
}

// WithField declares an auxiliary field of a new file
func WithField(d FieldDescriptor) Option {
	return func(o *Options) {
		o.fields = append(o.fields, d.clone())
	}
}

// WithRecordCompression selects the block codec of a new BLOW5 file
func WithRecordCompression(c RecordCompression) Option {
	return func(o *Options) {
		o.recordCompression = c
		o.recordCompressionSet = true
	}
}

// WithSignalCompression selects the signal codec of a new BLOW5 file
func WithSignalCompression(c SignalCompression) Option {
	return func(o *Options) {
		o.signalCompression = c
		o.signalCompressionSet = true
	}
}

// WithPersistentIndex keeps the read id index of an opened file in a
// directory next to it and reuses it while the file is unchanged
func WithPersistentIndex() Option {
	return func(o *Options) {
		o.persistentIndex = true
	}
}

// WithBufferSize sets the I/O buffer size
func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.bufferSize = n
	}
}

// WithMetrics records activity in m instead of the default metrics
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.metrics = m
	}
}

func (o *Options) hasCompression() bool {
	return o.recordCompressionSet || o.signalCompressionSet
}

func (o *Options) hasWriteOptions() bool {
	return o.readGroupsSet || len(o.attributes) > 0 || len(o.fields) > 0
}

// checkRead validates options given to Open
func (o *Options) checkRead() error {
	if o.hasCompression() {
		return wrapf(ErrCompressionConfigConflict, "compression is chosen when a file is created")
	}
	if o.hasWriteOptions() {
		return wrapf(ErrInvalidOption, "header options apply to Create")
	}
	return nil
}

// checkWrite validates options given to Create for format f
func (o *Options) checkWrite(f codec.Format) error {
	if o.persistentIndex {
		return wrapf(ErrInvalidOption, "persistent index applies to Open")
	}
	if o.readGroups < 1 {
		return ErrInvalidReadGroups
	}
	if !o.recordCompression.Valid() {
		return wrapf(ErrCompressionConfigConflict, "unknown record compression %d", o.recordCompression)
	}
	if !o.signalCompression.Valid() {
		return wrapf(ErrCompressionConfigConflict, "unknown signal compression %d", o.signalCompression)
	}
	if f == codec.FormatASCII && (o.recordCompression != RecordNone || o.signalCompression != SignalNone) {
		return wrapf(ErrCompressionConfigConflict, "%s files are not compressed", codec.SuffixASCII)
	}
	return nil
}

// formatOf maps a path suffix to its container format
func formatOf(path string) (codec.Format, error) {
	f, ok := codec.FormatFromPath(path)
	if !ok {
		return codec.FormatUnknown, wrapf(ErrUnsupportedExtension, "%s: want %s or %s", path, codec.SuffixASCII, codec.SuffixBinary)
	}
	return f, nil
}
