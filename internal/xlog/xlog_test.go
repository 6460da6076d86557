package xlog

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLevelForQuietWinsOverVerbose(t *testing.T) {
	assert.Equal(t, log.ErrorLevel, levelFor(true, 3))
}

func TestLevelForVerboseSteps(t *testing.T) {
	assert.Equal(t, log.WarnLevel, levelFor(false, 0))
	assert.Equal(t, log.InfoLevel, levelFor(false, 1))
	assert.Equal(t, log.DebugLevel, levelFor(false, 2))
	assert.Equal(t, log.DebugLevel, levelFor(false, 5))
}

func TestNewReturnsUsableLogger(t *testing.T) {
	logger := New(Options{Quiet: true})
	assert.NotNil(t, logger)
	assert.Equal(t, log.ErrorLevel, logger.GetLevel())
}

func TestNewWritesRotatingFileWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	logger := New(Options{FilePath: dir + "/xng.log"})
	assert.NotNil(t, logger)
}
