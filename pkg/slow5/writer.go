package slow5

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/codec"
	"github.com/ssargent/slow5/pkg/store"
)

// Writer creates a SLOW5 or BLOW5 file. Its header stays configurable
// until the first Append; after that only Append and Close are allowed.
// A Writer must be used by one goroutine at a time.
type Writer struct {
	h       *handle
	file    *store.FileWriter
	raw     *codec.Header
	reg     *Registry
	header  *Header
	stager  *stager
	ids     *store.ReadIndex
	format  codec.Format
	discard bool
	metrics *Metrics
	logger  zerolog.Logger
}

// Create opens path for writing, replacing any existing file once the
// Writer is closed. The format follows from the path suffix.
func Create(path string, opts ...Option) (*Writer, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	o := NewOptions(opts...)
	if err := o.checkWrite(format); err != nil {
		return nil, err
	}

	raw := codec.NewHeader(o.readGroups)
	raw.RecordCompression = o.recordCompression
	raw.SignalCompression = o.signalCompression
	for _, a := range o.attributes {
		if err := raw.SetAttribute(a.key, a.value, a.group); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAttribute, err)
		}
	}
	reg := NewRegistry()
	for _, d := range o.fields {
		if err := reg.Declare(d); err != nil {
			return nil, err
		}
	}

	file, err := store.NewFileWriter(store.FileWriterConfig{FilePath: path, BufferSize: o.bufferSize})
	if err != nil {
		return nil, engineErr(err)
	}

	w := &Writer{
		file:    file,
		raw:     raw,
		reg:     reg,
		header:  newHeaderView(raw, reg),
		stager:  newStager(),
		ids:     store.NewReadIndex(),
		format:  format,
		metrics: o.metrics,
		logger:  logging.Logger("writer"),
	}
	if w.metrics == nil {
		w.metrics = DefaultMetrics()
	}
	w.h = newHandle(stateWriteConfiguring, w.finish)
	w.metrics.handleOpened("write")
	return w, nil
}

// Path returns the destination path
func (w *Writer) Path() string {
	return w.file.Path()
}

// Header returns a view of the header being written
func (w *Writer) Header() *Header {
	return w.header
}

// Registry returns the auxiliary field registry. It is committed by the
// first Append.
func (w *Writer) Registry() *Registry {
	return w.reg
}

// NewRecordBuilder returns a builder checked against this file's fields
func (w *Writer) NewRecordBuilder() *RecordBuilder {
	return NewRecordBuilder(w.reg)
}

// configure runs fn while the header is still mutable
func (w *Writer) configure(fn func() error) error {
	if err := w.h.acquire(); err != nil {
		return err
	}
	defer w.h.release()

	if w.h.current() != stateWriteConfiguring {
		return ErrRegistryCommitted
	}
	return fn()
}

// SetAttribute sets a header attribute for one read group. An empty value
// unsets it.
func (w *Writer) SetAttribute(key, value string, group uint32) error {
	return w.configure(func() error {
		if err := w.raw.SetAttribute(key, value, group); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAttribute, err)
		}
		return nil
	})
}

// DeclareField adds an auxiliary field
func (w *Writer) DeclareField(d FieldDescriptor) error {
	return w.configure(func() error {
		return w.reg.Declare(d)
	})
}

// SetRecordCompression changes the block codec of a BLOW5 file
func (w *Writer) SetRecordCompression(c RecordCompression) error {
	return w.configure(func() error {
		if err := w.checkCompression(c != RecordNone, c.Valid()); err != nil {
			return err
		}
		w.raw.RecordCompression = c
		return nil
	})
}

// SetSignalCompression changes the signal codec of a BLOW5 file
func (w *Writer) SetSignalCompression(c SignalCompression) error {
	return w.configure(func() error {
		if err := w.checkCompression(c != SignalNone, c.Valid()); err != nil {
			return err
		}
		w.raw.SignalCompression = c
		return nil
	})
}

func (w *Writer) checkCompression(compressed, valid bool) error {
	if !valid {
		return wrapf(ErrCompressionConfigConflict, "unknown compression")
	}
	if compressed && w.format == codec.FormatASCII {
		return wrapf(ErrCompressionConfigConflict, "%s files are not compressed", codec.SuffixASCII)
	}
	return nil
}

// Append validates rec against the header and writes it. The first Append
// writes the header and freezes it.
func (w *Writer) Append(rec *Record) error {
	if rec == nil {
		return wrapf(ErrMissingField, "nil record")
	}
	if err := w.h.acquire(); err != nil {
		return err
	}
	defer w.h.release()

	err := w.append(rec)
	w.metrics.recordAppended(w.format.String(), rec.Len(), err)
	return err
}

func (w *Writer) append(rec *Record) error {
	if w.ids.Contains([]byte(rec.readID)) {
		return wrapf(ErrDuplicateReadID, "%q", rec.readID)
	}

	raw, err := w.stager.stage(rec, w.reg, w.raw.NumReadGroups)
	if err != nil {
		return err
	}
	defer w.stager.release()

	if w.h.current() == stateWriteConfiguring {
		if err := w.commit(); err != nil {
			return err
		}
	}

	entry, err := w.file.Append(raw)
	if err != nil {
		return appendErr(rec.readID, err)
	}
	return engineErr(w.ids.Put(raw.ReadID, entry))
}

// appendErr classifies a failed record write
func appendErr(readID string, err error) error {
	if errors.Is(err, codec.ErrCompress) {
		return fmt.Errorf("%w: read %s: %w", ErrCompression, readID, err)
	}
	return fmt.Errorf("%w: read %s: %w", ErrAppend, readID, err)
}

// commit writes the header and freezes the registry
func (w *Writer) commit() error {
	w.raw.Aux = w.reg.auxSpecs()
	if err := w.file.WriteHeader(w.raw); err != nil {
		return fmt.Errorf("%w: header: %w", ErrAppend, err)
	}
	w.reg.commit()
	w.h.commit()
	w.logger.Debug().
		Str("path", w.file.Path()).
		Int("aux_fields", w.reg.Len()).
		Str("record_compression", w.raw.RecordCompression.String()).
		Str("signal_compression", w.raw.SignalCompression.String()).
		Msg("committed header")
	return nil
}

// Close writes any pending output and publishes the file. A Writer closed
// before its first Append produces a file holding only the header.
// Closing a closed Writer does nothing.
func (w *Writer) Close() error {
	wasOpen := w.h.current() != stateClosed
	err := w.h.close()
	if wasOpen && !errors.Is(err, ErrConcurrentUse) {
		w.metrics.handleClosed("write")
	}
	return err
}

// Abort discards everything written and leaves any existing file at the
// destination untouched
func (w *Writer) Abort() error {
	if err := w.h.acquire(); err != nil {
		return err
	}
	w.discard = true
	w.h.release()
	return w.Close()
}

// finish releases the engine writer exactly once
func (w *Writer) finish() error {
	w.stager.release()
	if w.discard {
		return engineErr(w.file.Abort())
	}
	if !w.reg.Committed() {
		w.raw.Aux = w.reg.auxSpecs()
		if err := w.file.WriteHeader(w.raw); err != nil {
			w.file.Abort()
			return fmt.Errorf("%w: header: %w", ErrIO, err)
		}
		w.reg.commit()
	}
	if err := w.file.Close(); err != nil {
		return engineErr(err)
	}
	w.logger.Debug().Str("path", w.file.Path()).Int("reads", w.ids.Size()).Msg("closed writer")
	return nil
}
