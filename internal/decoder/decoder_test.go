package decoder

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnReadLineAndEnd(t *testing.T) {
	logger := log.New(os.Stderr)
	logger.SetLevel(log.ErrorLevel)

	d, err := Spawn(context.Background(), Spec{
		Bin:        "sh",
		Args:       []string{"-c", "echo line-one; echo line-two; sleep 5"},
		GraceAfter: 200 * time.Millisecond,
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, d)
	defer d.End()

	line, err := d.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "line-one", line)

	line, err = d.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "line-two", line)

	assert.NoError(t, d.End())
	assert.NoError(t, d.End()) // idempotent
}

func TestSpawnRejectsEmptyBinary(t *testing.T) {
	logger := log.New(os.Stderr)
	_, err := Spawn(context.Background(), Spec{}, logger)
	assert.Error(t, err)
}
