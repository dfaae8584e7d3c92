package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// IndexSuffix is appended to a data file path to locate its index
const IndexSuffix = ".idx"

var (
	keySize    = []byte("meta:size")
	keyModTime = []byte("meta:mtime")
	keyCount   = []byte("meta:count")
	ordPrefix  = []byte("ord:")
	ordEnd     = []byte("ord;")
)

// Entry is the stored location of one read
type Entry struct {
	ReadID string
	Offset int64
	Size   uint32
}

// Source identifies the version of the data file an index was built from
type Source struct {
	Size    int64
	ModTime time.Time
}

// IndexStore persists a read index in a pebble database
type IndexStore struct {
	db   *pebble.DB
	path string
}

// IndexPath returns the index location for a data file
func IndexPath(dataPath string) string {
	return dataPath + IndexSuffix
}

// OpenIndexStore opens or creates the index database at path
func OpenIndexStore(path string) (*IndexStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &IndexStore{db: db, path: path}, nil
}

// Path returns the database directory
func (s *IndexStore) Path() string {
	return s.path
}

// Load returns the stored entries in file order. The second result is false
// when nothing is stored or the index was built from a different version of
// the data file.
func (s *IndexStore) Load(src Source) ([]Entry, bool, error) {
	size, ok, err := s.getUint64(keySize)
	if err != nil || !ok {
		return nil, false, err
	}
	mtime, ok, err := s.getUint64(keyModTime)
	if err != nil || !ok {
		return nil, false, err
	}
	if int64(size) != src.Size || int64(mtime) != src.ModTime.UnixNano() {
		return nil, false, nil
	}
	count, ok, err := s.getUint64(keyCount)
	if err != nil || !ok {
		return nil, false, err
	}

	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		data, closer, err := s.db.Get(ordKey(i))
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		entry, decodeErr := decodeEntry(data)
		// entry owns its memory; the value buffer is released here
		closer.Close()
		if decodeErr != nil {
			return nil, false, fmt.Errorf("index entry %d: %w", i, decodeErr)
		}
		entries = append(entries, entry)
	}
	return entries, true, nil
}

// Save replaces the stored index with entries built from src
func (s *IndexStore) Save(src Source, entries []Entry) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(ordPrefix, ordEnd, nil); err != nil {
		return err
	}
	for i, e := range entries {
		if err := batch.Set(ordKey(uint64(i)), encodeEntry(e), nil); err != nil {
			return err
		}
	}
	if err := batch.Set(keyCount, binary.LittleEndian.AppendUint64(nil, uint64(len(entries))), nil); err != nil {
		return err
	}
	if err := batch.Set(keySize, binary.LittleEndian.AppendUint64(nil, uint64(src.Size)), nil); err != nil {
		return err
	}
	if err := batch.Set(keyModTime, binary.LittleEndian.AppendUint64(nil, uint64(src.ModTime.UnixNano())), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the database
func (s *IndexStore) Close() error {
	return s.db.Close()
}

func (s *IndexStore) getUint64(key []byte) (uint64, bool, error) {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	defer closer.Close()
	if len(data) != 8 {
		return 0, false, fmt.Errorf("malformed value for %s", key)
	}
	return binary.LittleEndian.Uint64(data), true, nil
}

func ordKey(i uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", ordPrefix, i))
}

// Format: [Offset(8)][Size(4)][ReadID]
func encodeEntry(e Entry) []byte {
	buf := make([]byte, 12+len(e.ReadID))
	binary.LittleEndian.PutUint64(buf[0:], uint64(e.Offset))
	binary.LittleEndian.PutUint32(buf[8:], e.Size)
	copy(buf[12:], e.ReadID)
	return buf
}

func decodeEntry(data []byte) (Entry, error) {
	if len(data) < 12 {
		return Entry{}, fmt.Errorf("entry too short: %d bytes", len(data))
	}
	return Entry{
		Offset: int64(binary.LittleEndian.Uint64(data[0:])),
		Size:   binary.LittleEndian.Uint32(data[8:]),
		ReadID: string(data[12:]),
	}, nil
}
