package blobstore

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTruncated = errors.New("stream truncated")

func TestStore(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.False(t, store.Exists("track.mp3"))

	n, err := store.Write("track.mp3", strings.NewReader("not really audio"))
	require.NoError(t, err)
	require.Equal(t, int64(len("not really audio")), n)

	require.True(t, store.Exists("track.mp3"))

	size, err := store.Size("track.mp3")
	require.NoError(t, err)
	require.Equal(t, n, size)

	contents, err := store.ReadFile("track.mp3")
	require.NoError(t, err)
	require.Equal(t, []byte("not really audio"), contents)

	err = store.Delete("track.mp3")
	require.NoError(t, err)
	require.False(t, store.Exists("track.mp3"))

	// deleting a missing blob is not an error
	err = store.Delete("track.mp3")
	require.NoError(t, err)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errTruncated
}

func TestFailedWriteLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	_, err = store.Write("blob", failingReader{})
	require.ErrorIs(t, err, errTruncated)

	require.False(t, store.Exists("blob"))
	require.Empty(t, listDir(t, dir))
}

func TestWriteLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	_, err = store.Write("blob", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)

	entries := listDir(t, dir)
	require.Equal(t, []string{"blob"}, entries)
}
