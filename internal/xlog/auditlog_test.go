package xlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogWritesIntoDailyFile(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLog(dir)
	require.NoError(t, err)
	defer al.Close()

	n, err := al.Write([]byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Positive(t, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), ".jsonl")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
