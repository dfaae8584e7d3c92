package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/codec"
)

// FileReader provides sequential and positioned access to the records of
// one SLOW5 or BLOW5 file.
//
// Records returned by ReadNext and ReadAt alias reader-owned buffers and are
// overwritten by the next call to either method.
type FileReader struct {
	file   *os.File
	reader *bufio.Reader
	format codec.Format
	header *codec.Header
	text   *codec.TextCodec
	binary *codec.BinaryCodec
	rec    codec.RawRecord

	dataStart int64
	offset    int64
	size      int64
	done      bool

	line  []byte
	block []byte
	at    []byte

	config FileReaderConfig
	logger zerolog.Logger
}

// NewFileReader opens the file and parses its header
func NewFileReader(config FileReaderConfig) (*FileReader, error) {
	format, ok := codec.FormatFromPath(config.FilePath)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	reader := bufio.NewReaderSize(file, config.BufferSize)

	var (
		header   *codec.Header
		consumed int64
	)
	switch format {
	case codec.FormatASCII:
		header, consumed, err = codec.ParseText(reader)
	default:
		header, consumed, err = codec.ParseBinary(reader)
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: header: %v", ErrCorruption, err)
	}

	r := &FileReader{
		file:      file,
		reader:    reader,
		format:    format,
		header:    header,
		dataStart: consumed,
		offset:    consumed,
		size:      stat.Size(),
		config:    config,
		logger:    logging.Logger("store"),
	}

	if format == codec.FormatBinary {
		r.binary, err = codec.NewBinaryCodec(header)
		if err != nil {
			file.Close()
			return nil, err
		}
	} else {
		r.text = codec.NewTextCodec(header)
	}

	r.logger.Debug().
		Str("path", config.FilePath).
		Str("format", format.String()).
		Int("aux_fields", len(header.Aux)).
		Uint32("read_groups", header.NumReadGroups).
		Msg("opened file")

	return r, nil
}

// Header returns the parsed file header
func (r *FileReader) Header() *codec.Header {
	return r.header
}

// Format returns the container format of the file
func (r *FileReader) Format() codec.Format {
	return r.format
}

// Path returns the file path
func (r *FileReader) Path() string {
	return r.config.FilePath
}

// Stat returns file information for the open file
func (r *FileReader) Stat() (os.FileInfo, error) {
	if r.file == nil {
		return nil, ErrClosed
	}
	return r.file.Stat()
}

// ReadNext decodes the record at the current offset. It returns io.EOF at
// the end of the file. A record that fails to decode is reported with an
// error wrapping ErrCorruption together with its location, and reading may
// continue with the next record. ErrTruncated ends the sequence.
func (r *FileReader) ReadNext() (*codec.RawRecord, IndexEntry, error) {
	if r.file == nil {
		return nil, IndexEntry{}, ErrClosed
	}
	if r.done {
		return nil, IndexEntry{}, io.EOF
	}
	if r.format == codec.FormatASCII {
		return r.readNextText()
	}
	return r.readNextBinary()
}

func (r *FileReader) readNextText() (*codec.RawRecord, IndexEntry, error) {
	start := r.offset
	line, err := r.readLine()
	if err != nil && err != io.EOF {
		return nil, IndexEntry{}, err
	}
	if len(line) == 0 {
		r.done = true
		return nil, IndexEntry{}, io.EOF
	}
	r.offset += int64(len(line))
	if uint64(len(line)) > math.MaxUint32 {
		return nil, IndexEntry{}, fmt.Errorf("%w: line at offset %d too long", ErrCorruption, start)
	}
	entry := IndexEntry{Offset: start, Size: uint32(len(line))}

	if err := r.text.Decode(line, &r.rec); err != nil {
		return nil, entry, fmt.Errorf("%w: record at offset %d: %v", ErrCorruption, start, err)
	}
	return &r.rec, entry, nil
}

func (r *FileReader) readLine() ([]byte, error) {
	line, err := r.reader.ReadSlice('\n')
	if err != bufio.ErrBufferFull {
		return line, err
	}
	r.line = append(r.line[:0], line...)
	for err == bufio.ErrBufferFull {
		line, err = r.reader.ReadSlice('\n')
		r.line = append(r.line, line...)
	}
	return r.line, err
}

func (r *FileReader) readNextBinary() (*codec.RawRecord, IndexEntry, error) {
	start := r.offset
	hdr, err := r.reader.Peek(codec.BlockHeaderSize)
	if err != nil && err != io.EOF {
		return nil, IndexEntry{}, err
	}

	switch {
	case len(hdr) == 0:
		r.done = true
		r.logger.Warn().Str("path", r.config.FilePath).Msg("missing end of file marker")
		return nil, IndexEntry{}, io.EOF
	case bytes.Equal(hdr, codec.EOFMarker):
		r.done = true
		return nil, IndexEntry{}, io.EOF
	case len(hdr) < codec.BlockHeaderSize:
		r.done = true
		return nil, IndexEntry{}, fmt.Errorf("%w: partial block at offset %d", ErrTruncated, start)
	}

	size, sum := codec.ParseBlockHeader(hdr)
	remaining := r.size - start - codec.BlockHeaderSize
	if size > uint64(remaining) || size > math.MaxUint32-codec.BlockHeaderSize {
		r.done = true
		return nil, IndexEntry{}, fmt.Errorf("%w: block at offset %d claims %d bytes", ErrTruncated, start, size)
	}
	if _, err := r.reader.Discard(codec.BlockHeaderSize); err != nil {
		return nil, IndexEntry{}, err
	}

	if uint64(cap(r.block)) < size {
		r.block = make([]byte, size)
	}
	r.block = r.block[:size]
	if _, err := io.ReadFull(r.reader, r.block); err != nil {
		r.done = true
		return nil, IndexEntry{}, fmt.Errorf("%w: block at offset %d: %v", ErrTruncated, start, err)
	}
	r.offset += codec.BlockHeaderSize + int64(size)
	entry := IndexEntry{Offset: start, Size: uint32(codec.BlockHeaderSize + size)}

	if err := r.decodeBlock(r.block, sum, start); err != nil {
		return nil, entry, err
	}
	return &r.rec, entry, nil
}

func (r *FileReader) decodeBlock(payload []byte, sum uint32, offset int64) error {
	if err := codec.VerifyBlock(payload, sum); err != nil {
		return fmt.Errorf("%w: record at offset %d: %w", ErrCorruption, offset, err)
	}
	if err := r.binary.Decode(payload, &r.rec); err != nil {
		return fmt.Errorf("%w: record at offset %d: %w", ErrCorruption, offset, err)
	}
	return nil
}

// ReadAt decodes the record at a known location without moving the
// sequential offset.
func (r *FileReader) ReadAt(entry IndexEntry) (*codec.RawRecord, error) {
	if r.file == nil {
		return nil, ErrClosed
	}
	if entry.Offset < r.dataStart || entry.Offset+int64(entry.Size) > r.size {
		return nil, fmt.Errorf("%w: entry at offset %d outside data section", ErrCorruption, entry.Offset)
	}

	if uint32(cap(r.at)) < entry.Size {
		r.at = make([]byte, entry.Size)
	}
	buf := r.at[:entry.Size]
	if n, err := r.file.ReadAt(buf, entry.Offset); n != len(buf) {
		return nil, fmt.Errorf("%w: read at offset %d: %v", ErrTruncated, entry.Offset, err)
	}

	if r.format == codec.FormatASCII {
		if err := r.text.Decode(buf, &r.rec); err != nil {
			return nil, fmt.Errorf("%w: record at offset %d: %v", ErrCorruption, entry.Offset, err)
		}
		return &r.rec, nil
	}

	if len(buf) < codec.BlockHeaderSize {
		return nil, fmt.Errorf("%w: entry at offset %d too small", ErrCorruption, entry.Offset)
	}
	size, sum := codec.ParseBlockHeader(buf)
	if size != uint64(len(buf)-codec.BlockHeaderSize) {
		return nil, fmt.Errorf("%w: block at offset %d has size %d, index says %d", ErrCorruption, entry.Offset, size, len(buf)-codec.BlockHeaderSize)
	}
	if err := r.decodeBlock(buf[codec.BlockHeaderSize:], sum, entry.Offset); err != nil {
		return nil, err
	}
	return &r.rec, nil
}

// Rewind moves the sequential offset back to the first record
func (r *FileReader) Rewind() error {
	if r.file == nil {
		return ErrClosed
	}
	return r.Seek(r.dataStart)
}

// Seek moves the sequential offset to a record boundary previously
// reported by ReadNext or DataStart
func (r *FileReader) Seek(offset int64) error {
	if r.file == nil {
		return ErrClosed
	}
	if offset < r.dataStart || offset > r.size {
		return fmt.Errorf("%w: seek to %d outside data section", ErrCorruption, offset)
	}
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader.Reset(r.file) // drop buffered bytes from the old position
	r.offset = offset
	r.done = false
	return nil
}

// DataStart returns the offset of the first record
func (r *FileReader) DataStart() int64 {
	return r.dataStart
}

// Offset returns the current read offset
func (r *FileReader) Offset() int64 {
	return r.offset
}

// Close closes the file. Closing twice returns ErrClosed.
func (r *FileReader) Close() error {
	if r.file == nil {
		return ErrClosed
	}
	if r.binary != nil {
		r.binary.Close()
	}
	err := r.file.Close()
	r.file = nil
	r.logger.Debug().Str("path", r.config.FilePath).Msg("closed file")
	return err
}
