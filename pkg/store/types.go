package store

// IndexEntry represents the location of one record in a file
type IndexEntry struct {
	Offset int64  // Byte offset of the block or line
	Size   uint32 // Size of the block or line in bytes
}

// FileWriterConfig holds configuration for the file writer
type FileWriterConfig struct {
	FilePath   string // Destination path; the extension selects the format
	BufferSize int    // Write buffer size
}

// FileReaderConfig holds configuration for the file reader
type FileReaderConfig struct {
	FilePath   string // Path to the data file
	BufferSize int    // Read buffer size
}

// DefaultBufferSize is used when a config leaves BufferSize at zero
const DefaultBufferSize = 64 * 1024

// Errors
var (
	ErrReadIDNotFound    = &StoreError{"read id not found"}
	ErrDuplicateReadID   = &StoreError{"duplicate read id"}
	ErrCorruption        = &StoreError{"data corruption detected"}
	ErrTruncated         = &StoreError{"file truncated"}
	ErrUnsupportedFormat = &StoreError{"unsupported file extension"}
	ErrHeaderWritten     = &StoreError{"header already written"}
	ErrNoHeader          = &StoreError{"header not written"}
	ErrClosed            = &StoreError{"file closed"}
)

// StoreError represents a storage engine error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
