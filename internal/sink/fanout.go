package sink

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/airframesio/xng/internal/frame"
)

// FrameQueueCapacity is the bounded MPSC capacity CFFs travel through
// between the Normalizer and the sinks (spec.md §4.5, §5).
const FrameQueueCapacity = 2048

// Sink accepts a normalized frame for asynchronous delivery.
type Sink interface {
	Submit(ctx context.Context, cf frame.CommonFrame) error
}

// FanOut distributes every CFF from its input channel to all configured
// sinks, in the order the decoder emitted them (spec.md §5 ordering
// guarantee).
type FanOut struct {
	sinks []Sink
	log   *log.Logger
}

// NewFanOut builds a FanOut over the given sinks.
func NewFanOut(logger *log.Logger, sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks, log: logger}
}

// Run drains frames until ctx is cancelled or the channel closes, handing
// each one to every sink; a per-sink error is logged and never stops the
// loop (spec.md §7 "Transport" errors are per-sink, non-fatal).
func (f *FanOut) Run(ctx context.Context, frames <-chan frame.CommonFrame) {
	for {
		select {
		case cf, ok := <-frames:
			if !ok {
				return
			}
			for _, s := range f.sinks {
				if err := s.Submit(ctx, cf); err != nil {
					f.log.Warn("sink submit failed", "err", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// swarmSink and stateDBSink adapt the concrete writers to the Sink
// interface so FanOut can treat them uniformly.
type swarmSink struct{ w *SwarmWriter }

func (s swarmSink) Submit(ctx context.Context, cf frame.CommonFrame) error { return s.w.Write(ctx, cf) }

// SwarmSink wraps a SwarmWriter as a Sink.
func SwarmSink(w *SwarmWriter) Sink { return swarmSink{w: w} }

type esSink struct{ b *ESBatcher }

func (s esSink) Submit(ctx context.Context, cf frame.CommonFrame) error {
	s.b.Submit(ctx, cf)
	return nil
}

// ESSink wraps an ESBatcher as a Sink.
func ESSink(b *ESBatcher) Sink { return esSink{b: b} }

type stateDBSink struct{ w *StateDBWriter }

func (s stateDBSink) Submit(_ context.Context, cf frame.CommonFrame) error { return s.w.WriteFrame(cf) }

// StateDBSink wraps a StateDBWriter as a Sink.
func StateDBSink(w *StateDBWriter) Sink { return stateDBSink{w: w} }
