package slow5

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/codec"
	"github.com/ssargent/slow5/pkg/storage"
	"github.com/ssargent/slow5/pkg/store"
)

// Reader gives sequential, positioned and read id access to one file.
// A Reader must be used by one goroutine at a time; overlapping calls fail
// with ErrConcurrentUse. Records it returns are independent of it.
type Reader struct {
	h       *handle
	file    *store.FileReader
	header  *Header
	reg     *Registry
	index   *store.ReadIndex
	opts    Options
	metrics *Metrics
	format  string
	logger  zerolog.Logger
}

// Open opens a SLOW5 or BLOW5 file for reading. The format follows from
// the path suffix.
func Open(path string, opts ...Option) (*Reader, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	o := NewOptions(opts...)
	if err := o.checkRead(); err != nil {
		return nil, err
	}

	file, err := store.NewFileReader(store.FileReaderConfig{FilePath: path, BufferSize: o.bufferSize})
	if err != nil {
		return nil, engineErr(err)
	}

	reg := registryFromHeader(file.Header())
	r := &Reader{
		file:    file,
		header:  newHeaderView(file.Header(), reg),
		reg:     reg,
		opts:    o,
		metrics: o.metrics,
		format:  format.String(),
		logger:  logging.Logger("reader"),
	}
	if r.metrics == nil {
		r.metrics = DefaultMetrics()
	}
	r.h = newHandle(stateOpenRead, file.Close)
	r.metrics.handleOpened("read")
	return r, nil
}

// Path returns the file path
func (r *Reader) Path() string {
	return r.file.Path()
}

// Header returns the file header
func (r *Reader) Header() *Header {
	return r.header
}

// Registry returns the committed auxiliary field registry. It is immutable
// and may be shared.
func (r *Reader) Registry() *Registry {
	return r.reg
}

func (r *Reader) NumReadGroups() uint32 {
	return r.header.NumReadGroups()
}

func (r *Reader) AttributeKeys() []string {
	return r.header.AttributeKeys()
}

// Attribute returns the value of a header attribute for a read group
func (r *Reader) Attribute(key string, group uint32) (string, error) {
	if r.h.current() == stateClosed {
		return "", ErrHandleClosed
	}
	return r.header.Attribute(key, group)
}

// AuxNames returns the auxiliary field names in column order
func (r *Reader) AuxNames() []string {
	return r.reg.Names()
}

// Fields returns the auxiliary field descriptors in column order
func (r *Reader) Fields() []FieldDescriptor {
	return r.reg.Fields()
}

// AuxEnumLabels returns the label table of an enum field
func (r *Reader) AuxEnumLabels(name string) ([]string, error) {
	return r.reg.EnumLabels(name)
}

func (r *Reader) RecordCompression() RecordCompression {
	return r.header.RecordCompression()
}

func (r *Reader) SignalCompression() SignalCompression {
	return r.header.SignalCompression()
}

// Records returns an iterator over every record in file order
func (r *Reader) Records() *RecordIter {
	return &RecordIter{r: r, offset: r.file.DataStart()}
}

// Get returns the record with the given read id
func (r *Reader) Get(readID string) (*Record, error) {
	if err := r.h.acquire(); err != nil {
		return nil, err
	}
	defer r.h.release()

	if err := r.ensureIndex(); err != nil {
		return nil, err
	}
	entry, ok := r.index.Get([]byte(readID))
	r.metrics.lookup(ok)
	if !ok {
		return nil, wrapf(ErrReadIDNotFound, "%q", readID)
	}

	return r.readEntry(readID, entry)
}

// readEntry decodes the record stored at entry. The caller holds the
// handle.
func (r *Reader) readEntry(readID string, entry store.IndexEntry) (*Record, error) {
	raw, err := r.file.ReadAt(entry)
	if err != nil {
		r.metrics.recordDecoded(r.format, 0, err)
		return nil, engineErr(err)
	}
	if string(raw.ReadID) != readID {
		err := wrapf(ErrDecode, "index points %q at read %q", readID, raw.ReadID)
		r.metrics.recordDecoded(r.format, 0, err)
		return nil, err
	}
	rec, err := decodeRecord(raw, r.reg, r.header.NumReadGroups())
	r.metrics.recordDecoded(r.format, len(raw.RawSignal), err)
	return rec, err
}

// location is where one read is stored
type location struct {
	readID string
	entry  store.IndexEntry
}

// locations returns every indexed read with its location, in file order
func (r *Reader) locations() ([]location, store.IndexStats, error) {
	if err := r.h.acquire(); err != nil {
		return nil, store.IndexStats{}, err
	}
	defer r.h.release()

	if err := r.ensureIndex(); err != nil {
		return nil, store.IndexStats{}, err
	}
	ids := r.index.ReadIDs()
	locs := make([]location, 0, len(ids))
	for _, id := range ids {
		e, _ := r.index.Get([]byte(id))
		locs = append(locs, location{readID: id, entry: e})
	}
	return locs, r.index.Stats(), nil
}

// getAt decodes a read at a location found by another Reader of the same
// file, skipping the index build
func (r *Reader) getAt(loc location) (*Record, error) {
	if err := r.h.acquire(); err != nil {
		return nil, err
	}
	defer r.h.release()
	return r.readEntry(loc.readID, loc.entry)
}

// ReadIDs returns an iterator over the read ids in file order. Records are
// decoded once to build the index; iterating does not decode them again.
func (r *Reader) ReadIDs() *ReadIDIter {
	return &ReadIDIter{r: r}
}

// IndexStats reports the size of the read id index, building it if needed
func (r *Reader) IndexStats() (store.IndexStats, error) {
	if err := r.h.acquire(); err != nil {
		return store.IndexStats{}, err
	}
	defer r.h.release()

	if err := r.ensureIndex(); err != nil {
		return store.IndexStats{}, err
	}
	return r.index.Stats(), nil
}

// Close releases the file. Closing a closed Reader does nothing.
func (r *Reader) Close() error {
	wasOpen := r.h.current() != stateClosed
	if err := r.h.close(); err != nil {
		return engineErr(err)
	}
	if wasOpen {
		r.metrics.handleClosed("read")
	}
	return nil
}

// ensureIndex builds or loads the read id index. The caller holds the
// handle.
func (r *Reader) ensureIndex() error {
	if r.index != nil {
		return nil
	}
	idx := store.NewReadIndex()

	if !r.opts.persistentIndex {
		if err := idx.BuildFromFile(r.file); err != nil {
			return engineErr(err)
		}
		r.metrics.indexBuilt("scan")
		r.index = idx
		return nil
	}

	if err := r.loadPersistentIndex(idx); err != nil {
		return err
	}
	r.index = idx
	return nil
}

func (r *Reader) loadPersistentIndex(idx *store.ReadIndex) error {
	stat, err := r.file.Stat()
	if err != nil {
		return engineErr(err)
	}
	src := storage.Source{Size: stat.Size(), ModTime: stat.ModTime()}

	db, err := storage.OpenIndexStore(storage.IndexPath(r.file.Path()))
	if err != nil {
		return fmt.Errorf("%w: open index: %w", ErrIO, err)
	}
	defer db.Close()

	entries, ok, err := db.Load(src)
	if err != nil {
		return fmt.Errorf("%w: load index: %w", ErrIO, err)
	}
	if ok {
		for _, e := range entries {
			if err := idx.Put([]byte(e.ReadID), store.IndexEntry{Offset: e.Offset, Size: e.Size}); err != nil {
				return engineErr(err)
			}
		}
		r.metrics.indexBuilt("persistent")
		r.logger.Debug().Str("path", db.Path()).Int("reads", len(entries)).Msg("loaded read index")
		return nil
	}

	if err := idx.BuildFromFile(r.file); err != nil {
		return engineErr(err)
	}
	r.metrics.indexBuilt("scan")

	ids := idx.ReadIDs()
	entries = make([]storage.Entry, 0, len(ids))
	for _, id := range ids {
		e, _ := idx.Get([]byte(id))
		entries = append(entries, storage.Entry{ReadID: id, Offset: e.Offset, Size: e.Size})
	}
	if err := db.Save(src, entries); err != nil {
		return fmt.Errorf("%w: save index: %w", ErrIO, err)
	}
	r.logger.Debug().Str("path", db.Path()).Int("reads", len(entries)).Msg("saved read index")
	return nil
}

// RecordIter walks the records of a Reader. Each iterator keeps its own
// position, so several may be used in turn on the same Reader.
//
//	it := r.Records()
//	for it.Next() {
//		rec, err := it.Record()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type RecordIter struct {
	r      *Reader
	offset int64
	rec    *Record
	recErr error
	err    error
	done   bool
}

// Next advances to the next record. It returns false at the end of the
// file or when the Reader can no longer be used.
func (it *RecordIter) Next() bool {
	it.rec, it.recErr = nil, nil
	if it.done {
		return false
	}
	if err := it.r.h.acquire(); err != nil {
		it.err, it.done = err, true
		return false
	}
	defer it.r.h.release()

	file := it.r.file
	if file.Offset() != it.offset {
		if err := file.Seek(it.offset); err != nil {
			it.err, it.done = engineErr(err), true
			return false
		}
	}

	raw, _, err := file.ReadNext()
	it.offset = file.Offset()
	switch {
	case err == io.EOF:
		it.done = true
		return false
	case errors.Is(err, store.ErrTruncated):
		// reported once, nothing follows a truncated block
		it.recErr, it.done = engineErr(err), true
		it.r.metrics.recordDecoded(it.r.format, 0, err)
		return true
	case errors.Is(err, store.ErrCorruption):
		it.recErr = engineErr(err)
		it.r.metrics.recordDecoded(it.r.format, 0, err)
		return true
	case err != nil:
		it.err, it.done = engineErr(err), true
		return false
	}

	it.rec, it.recErr = decodeRecord(raw, it.r.reg, it.r.header.NumReadGroups())
	it.r.metrics.recordDecoded(it.r.format, len(raw.RawSignal), it.recErr)
	return true
}

// Record returns the current record or the error that kept it from
// decoding. A decode error affects only this record.
func (it *RecordIter) Record() (*Record, error) {
	return it.rec, it.recErr
}

// Err returns the error that ended iteration early, if any
func (it *RecordIter) Err() error {
	return it.err
}

// Reset restarts the iteration from the first record
func (it *RecordIter) Reset() {
	*it = RecordIter{r: it.r, offset: it.r.file.DataStart()}
}

// ReadIDIter walks the read ids of a Reader in file order
type ReadIDIter struct {
	r   *Reader
	pos int
	id  string
	err error
}

// Next advances to the next read id
func (it *ReadIDIter) Next() bool {
	if it.err != nil {
		return false
	}
	if err := it.r.h.acquire(); err != nil {
		it.err = err
		return false
	}
	defer it.r.h.release()

	if err := it.r.ensureIndex(); err != nil {
		it.err = err
		return false
	}
	id, ok := it.r.index.ReadIDAt(it.pos)
	if !ok {
		return false
	}
	it.id = id
	it.pos++
	return true
}

// ReadID returns the current read id
func (it *ReadIDIter) ReadID() string {
	return it.id
}

func (it *ReadIDIter) Err() error {
	return it.err
}

// Reset restarts from the first read id
func (it *ReadIDIter) Reset() {
	it.pos, it.id, it.err = 0, "", nil
}

// engineErr maps a storage engine failure onto the public taxonomy
func engineErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrClosed):
		return fmt.Errorf("%w: %w", ErrHandleClosed, err)
	case errors.Is(err, store.ErrCorruption), errors.Is(err, store.ErrTruncated):
		return fmt.Errorf("%w: %w", ErrDecode, err)
	case errors.Is(err, store.ErrDuplicateReadID):
		return fmt.Errorf("%w: %w", ErrDuplicateReadID, err)
	case errors.Is(err, store.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %w", ErrUnsupportedExtension, err)
	case errors.Is(err, codec.ErrCompress):
		return fmt.Errorf("%w: %w", ErrCompression, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}
