package hashutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	table := []struct {
		algorithm string
		input     string
		expected  string
	}{
		{algorithm: "md5", input: "imagine dragons|0", expected: "044df35b8cf941ac1205bd781615250c"},
		{algorithm: "", input: "imagine dragons|0", expected: "044df35b8cf941ac1205bd781615250c"},
		{algorithm: "sha1", input: "abc", expected: "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{algorithm: "sha256", input: "abc", expected: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, row := range table {
		fn, err := New(row.algorithm)
		require.NoError(t, err)
		require.Equal(t, row.expected, fn(row.input))
	}
}

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New("crc32")
	require.Error(t, err)
}

func TestDeterministic(t *testing.T) {
	fn, err := New("md5")
	require.NoError(t, err)
	require.Equal(t, fn("query|2"), fn("query|2"))
	require.NotEqual(t, fn("query|2"), fn("query|3"))
}
