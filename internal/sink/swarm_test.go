package sink

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airframesio/xng/internal/frame"
)

func TestSwarmWriterWritesNewlineDelimitedJSON(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := DialSwarm(ctx, ln.Addr().String())
	require.NoError(t, err)
	defer w.Close()

	server := <-accepted
	defer server.Close()

	icao := "A1B2C3"
	cf := frame.CommonFrame{
		Timestamp: time.Now().UTC(),
		Freq:      10.0,
		Src:       frame.Entity{Kind: frame.Aircraft, ICAO: &icao},
		App:       frame.AppInfo{Name: "dumphfdl", Version: "1.0"},
	}
	require.NoError(t, w.Write(ctx, cf))

	reader := bufio.NewReader(server)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "A1B2C3")
}

func TestSwarmWriterReconnectsOnBrokenPipe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 2)
	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := DialSwarm(ctx, ln.Addr().String())
	require.NoError(t, err)
	defer w.Close()

	first := <-accepted
	first.Close()

	time.Sleep(50 * time.Millisecond)

	icao := "A1B2C3"
	cf := frame.CommonFrame{
		Timestamp: time.Now().UTC(),
		Freq:      10.0,
		Src:       frame.Entity{Kind: frame.Aircraft, ICAO: &icao},
		App:       frame.AppInfo{Name: "dumphfdl", Version: "1.0"},
	}

	// The first write into the half-closed socket can still succeed (the
	// peer answers it with a reset), so keep writing until the broken pipe
	// surfaces and the writer reconnects.
	var writeErr error
	for i := 0; i < 3; i++ {
		writeErr = w.Write(ctx, cf)
		time.Sleep(50 * time.Millisecond)
	}
	require.NoError(t, writeErr)

	second := <-accepted
	defer second.Close()

	reader := bufio.NewReader(second)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "A1B2C3")
}
