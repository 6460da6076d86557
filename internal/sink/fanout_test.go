package sink

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airframesio/xng/internal/frame"
)

type fakeSink struct {
	mu      sync.Mutex
	got     []frame.CommonFrame
	failing bool
}

func (f *fakeSink) Submit(_ context.Context, cf frame.CommonFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("fake sink failure")
	}
	f.got = append(f.got, cf)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestFanOutDistributesToAllSinksAndSurvivesFailures(t *testing.T) {
	good := &fakeSink{}
	bad := &fakeSink{failing: true}

	fo := NewFanOut(log.New(io.Discard), good, bad)

	frames := make(chan frame.CommonFrame, 2)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		fo.Run(ctx, frames)
		close(done)
	}()

	icao := "A1B2C3"
	cf := frame.CommonFrame{
		Timestamp: time.Now().UTC(),
		Freq:      10.0,
		Src:       frame.Entity{Kind: frame.Aircraft, ICAO: &icao},
		App:       frame.AppInfo{Name: "dumphfdl", Version: "1.0"},
	}
	frames <- cf
	frames <- cf

	require.Eventually(t, func() bool { return good.count() == 2 }, time.Second, 10*time.Millisecond)

	close(frames)
	<-done

	assert.Equal(t, 2, good.count())
}
