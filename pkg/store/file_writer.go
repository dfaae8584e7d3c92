package store

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/codec"
)

// FileWriter appends records to a new SLOW5 or BLOW5 file. Output goes to a
// hidden temporary file next to the destination which replaces the
// destination on Close.
type FileWriter struct {
	file    *os.File
	writer  *bufio.Writer
	format  codec.Format
	header  *codec.Header
	text    *codec.TextCodec
	binary  *codec.BinaryCodec
	block   []byte
	tmpPath string
	config  FileWriterConfig
	mutex   sync.Mutex
	offset  int64 // Current write offset
	logger  zerolog.Logger
}

// NewFileWriter creates the temporary output file for config.FilePath
func NewFileWriter(config FileWriterConfig) (*FileWriter, error) {
	format, ok := codec.FormatFromPath(config.FilePath)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(config.FilePath), ksuid.New().String()))
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &FileWriter{
		file:    file,
		writer:  bufio.NewWriterSize(file, config.BufferSize),
		format:  format,
		tmpPath: tmpPath,
		config:  config,
		logger:  logging.Logger("store"),
	}, nil
}

// Format returns the container format being written
func (w *FileWriter) Format() codec.Format {
	return w.format
}

// WriteHeader writes the file header. It must be called exactly once,
// before the first Append.
func (w *FileWriter) WriteHeader(h *codec.Header) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	if w.header != nil {
		return ErrHeaderWritten
	}

	var (
		data []byte
		err  error
	)
	if w.format == codec.FormatBinary {
		w.binary, err = codec.NewBinaryCodec(h)
		if err != nil {
			return err
		}
		data, err = h.MarshalBinary()
	} else {
		w.text = codec.NewTextCodec(h)
		data, err = h.MarshalText()
	}
	if err != nil {
		return err
	}

	n, err := w.writer.Write(data)
	w.offset += int64(n)
	if err != nil {
		return err
	}
	w.header = h
	return nil
}

// Append encodes rec and writes it, returning where it landed. rec is not
// retained after the call returns.
func (w *FileWriter) Append(rec *codec.RawRecord) (IndexEntry, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return IndexEntry{}, ErrClosed
	}
	if w.header == nil {
		return IndexEntry{}, ErrNoHeader
	}

	var data []byte
	if w.format == codec.FormatBinary {
		payload, err := w.binary.Encode(rec)
		if err != nil {
			return IndexEntry{}, err
		}
		if uint64(len(payload)) > math.MaxUint32-codec.BlockHeaderSize {
			return IndexEntry{}, fmt.Errorf("record of %d bytes too large", len(payload))
		}
		w.block = codec.AppendBlock(w.block[:0], payload)
		data = w.block
	} else {
		line, err := w.text.Encode(rec)
		if err != nil {
			return IndexEntry{}, err
		}
		if uint64(len(line)) > math.MaxUint32 {
			return IndexEntry{}, fmt.Errorf("record of %d bytes too large", len(line))
		}
		data = line
	}

	entry := IndexEntry{Offset: w.offset, Size: uint32(len(data))}
	n, err := w.writer.Write(data)
	w.offset += int64(n)
	if err != nil {
		return IndexEntry{}, err
	}
	return entry, nil
}

// Size returns the number of bytes written so far
func (w *FileWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the destination path
func (w *FileWriter) Path() string {
	return w.config.FilePath
}

// Close terminates the file, syncs it and moves it over the destination
func (w *FileWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	if w.header == nil {
		w.abort()
		return ErrNoHeader
	}

	if w.format == codec.FormatBinary {
		if _, err := w.writer.Write(codec.EOFMarker); err != nil {
			w.abort()
			return err
		}
		w.offset += int64(len(codec.EOFMarker))
	}
	if err := w.sync(); err != nil {
		w.abort()
		return err
	}
	if w.binary != nil {
		w.binary.Close()
	}
	if err := w.file.Close(); err != nil {
		w.file = nil
		os.Remove(w.tmpPath)
		return err
	}
	w.file = nil

	if err := os.Rename(w.tmpPath, w.config.FilePath); err != nil {
		os.Remove(w.tmpPath)
		return err
	}

	w.logger.Debug().
		Str("path", w.config.FilePath).
		Int64("bytes", w.offset).
		Msg("published file")
	return nil
}

// Abort discards everything written and removes the temporary file
func (w *FileWriter) Abort() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	return w.abort()
}

func (w *FileWriter) abort() error {
	if w.binary != nil {
		w.binary.Close()
	}
	err := w.file.Close()
	w.file = nil
	if rmErr := os.Remove(w.tmpPath); rmErr != nil && err == nil {
		err = rmErr
	}
	w.logger.Debug().Str("path", w.config.FilePath).Msg("discarded file")
	return err
}

// sync flushes buffered writes and fsyncs the file
func (w *FileWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}
