package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPath(t *testing.T) {
	assert.Equal(t, "/data/reads.blow5.idx", IndexPath("/data/reads.blow5"))
}

func TestIndexStore_SaveLoad(t *testing.T) {
	s, err := OpenIndexStore(filepath.Join(t.TempDir(), "reads.blow5.idx"))
	require.NoError(t, err)
	defer s.Close()

	src := Source{Size: 4096, ModTime: time.Unix(1700000000, 42)}
	entries := make([]Entry, 0, 50)
	for i := 0; i < 50; i++ {
		entries = append(entries, Entry{ReadID: uuid.NewString(), Offset: int64(100 + i*64), Size: 64})
	}
	require.NoError(t, s.Save(src, entries))

	got, ok, err := s.Load(src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestIndexStore_EmptyAndStale(t *testing.T) {
	s, err := OpenIndexStore(filepath.Join(t.TempDir(), "idx"))
	require.NoError(t, err)
	defer s.Close()

	src := Source{Size: 10, ModTime: time.Unix(1, 0)}
	_, ok, err := s.Load(src)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(src, []Entry{{ReadID: "r1", Offset: 80, Size: 20}}))

	_, ok, err = s.Load(Source{Size: 11, ModTime: src.ModTime})
	require.NoError(t, err)
	assert.False(t, ok, "size change must invalidate")

	_, ok, err = s.Load(Source{Size: 10, ModTime: time.Unix(2, 0)})
	require.NoError(t, err)
	assert.False(t, ok, "mtime change must invalidate")
}

func TestIndexStore_SaveReplaces(t *testing.T) {
	s, err := OpenIndexStore(filepath.Join(t.TempDir(), "idx"))
	require.NoError(t, err)
	defer s.Close()

	src := Source{Size: 10, ModTime: time.Unix(1, 0)}
	require.NoError(t, s.Save(src, []Entry{{ReadID: "a"}, {ReadID: "b"}, {ReadID: "c"}}))
	require.NoError(t, s.Save(src, []Entry{{ReadID: "z", Offset: 5, Size: 1}}))

	got, ok, err := s.Load(src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Entry{{ReadID: "z", Offset: 5, Size: 1}}, got)
}

func TestIndexStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx")
	src := Source{Size: 99, ModTime: time.Unix(5, 5)}

	s, err := OpenIndexStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(src, []Entry{{ReadID: "r1", Offset: 70, Size: 29}}))
	require.NoError(t, s.Close())

	s, err = OpenIndexStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Load(src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r1", got[0].ReadID)
}
