package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCappedLogKeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "quotagate.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()
	w.max, w.keep = 10, 4

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))

	_, err = w.Write([]byte("ab"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "89ab", string(data))

	_, err = w.Write([]byte("c"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "89abc", string(data))
}
