package store

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ReadIndex maps read ids to record locations and remembers file order
type ReadIndex struct {
	entries map[string]IndexEntry
	order   []string
	skipped int
	mutex   sync.RWMutex
}

// IndexStats holds statistics about the index
type IndexStats struct {
	TotalReads int
	Skipped    int // records that could not be decoded while building
}

// NewReadIndex creates an empty read index
func NewReadIndex() *ReadIndex {
	return &ReadIndex{
		entries: make(map[string]IndexEntry),
	}
}

// Put adds the location of a read. Read ids are unique within a file.
func (idx *ReadIndex) Put(readID []byte, entry IndexEntry) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	key := string(readID)
	if _, exists := idx.entries[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateReadID, key)
	}
	idx.entries[key] = entry
	idx.order = append(idx.order, key)
	return nil
}

// Get retrieves the location of a read
func (idx *ReadIndex) Get(readID []byte) (IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entry, exists := idx.entries[string(readID)]
	return entry, exists
}

// Contains reports whether the read id is indexed
func (idx *ReadIndex) Contains(readID []byte) bool {
	_, exists := idx.Get(readID)
	return exists
}

// Size returns the number of reads in the index
func (idx *ReadIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// ReadIDAt returns the i-th read id in file order
func (idx *ReadIndex) ReadIDAt(i int) (string, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	if i < 0 || i >= len(idx.order) {
		return "", false
	}
	return idx.order[i], true
}

// ReadIDs returns all read ids in file order
func (idx *ReadIndex) ReadIDs() []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	ids := make([]string, len(idx.order))
	copy(ids, idx.order)
	return ids
}

// Clear removes all entries from the index
func (idx *ReadIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]IndexEntry)
	idx.order = nil
	idx.skipped = 0
}

// BuildFromFile scans every record of the file and populates the index.
// Records that fail to decode are counted and skipped. The reader is
// rewound before and after the scan.
func (idx *ReadIndex) BuildFromFile(reader *FileReader) error {
	idx.Clear()

	if err := reader.Rewind(); err != nil {
		return err
	}

	for {
		rec, entry, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrCorruption) {
			idx.mutex.Lock()
			idx.skipped++
			idx.mutex.Unlock()
			reader.logger.Warn().Err(err).Msg("skipping record while indexing")
			continue
		}
		if err != nil {
			return err
		}
		if err := idx.Put(rec.ReadID, entry); err != nil {
			return err
		}
	}

	reader.logger.Debug().
		Str("path", reader.Path()).
		Int("reads", idx.Size()).
		Msg("built read index")

	return reader.Rewind()
}

// Stats returns index statistics
func (idx *ReadIndex) Stats() IndexStats {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return IndexStats{
		TotalReads: len(idx.entries),
		Skipped:    idx.skipped,
	}
}
