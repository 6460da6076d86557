package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/airframesio/xng/internal/frame"
)

// InitialSwarmConnectTimeout caps the exponential backoff used while
// establishing the first Swarm connection (spec.md §4.5).
const InitialSwarmConnectTimeout = 60 * time.Second

// SwarmWriter streams newline-delimited JSON CFFs to a persistent TCP
// connection, reconnecting once on a broken pipe before dropping a frame
// (spec.md §4.5).
type SwarmWriter struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
}

// DialSwarm connects to addr (host:port) with exponential backoff (1, 2,
// 4, … s) capped at InitialSwarmConnectTimeout, cancellation-aware via ctx.
func DialSwarm(ctx context.Context, addr string) (*SwarmWriter, error) {
	w := &SwarmWriter{addr: addr}

	backoff := time.Second
	for {
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err == nil {
			w.conn = conn
			return w, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("sink: swarm dial %s cancelled: %w", addr, ctx.Err())
		}
		if backoff >= InitialSwarmConnectTimeout {
			return nil, fmt.Errorf("sink: swarm dial %s: %w", addr, err)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("sink: swarm dial %s cancelled: %w", addr, ctx.Err())
		}
		backoff *= 2
		if backoff > InitialSwarmConnectTimeout {
			backoff = InitialSwarmConnectTimeout
		}
	}
}

// Write serializes cf as a newline-terminated JSON line. On a broken-pipe
// write error it attempts exactly one reconnect; if that also fails the
// frame is dropped (returns the error for the caller to log, not retry).
func (w *SwarmWriter) Write(ctx context.Context, cf frame.CommonFrame) error {
	line, err := json.Marshal(cf)
	if err != nil {
		return fmt.Errorf("sink: marshal CFF for swarm: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeLocked(line); err != nil {
		if !isBrokenPipe(err) {
			return err
		}
		if rerr := w.reconnectLocked(ctx); rerr != nil {
			return fmt.Errorf("sink: swarm reconnect after broken pipe: %w", rerr)
		}
		return w.writeLocked(line)
	}
	return nil
}

func (w *SwarmWriter) writeLocked(line []byte) error {
	if w.conn == nil {
		return io.ErrClosedPipe
	}
	_, err := w.conn.Write(line)
	return err
}

func (w *SwarmWriter) reconnectLocked(ctx context.Context) error {
	if w.conn != nil {
		_ = w.conn.Close()
	}
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", w.addr)
	if err != nil {
		w.conn = nil
		return err
	}
	w.conn = conn
	return nil
}

func isBrokenPipe(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF)
}

// Close closes the underlying connection.
func (w *SwarmWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
