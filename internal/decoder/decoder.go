// Package decoder spawns and supervises the external dumphfdl/dumpvdl2
// child process for one session, scanning its stdout line by line and
// forwarding stderr to the structured logger.
package decoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// Spec names the binary, its argument contract, and working directory for
// one decoder invocation (spec.md §6 External Interfaces).
type Spec struct {
	Bin        string
	Args       []string
	Dir        string
	GraceAfter time.Duration // time to wait after SIGTERM before SIGKILL
}

const defaultGrace = 5 * time.Second

// Decoder wraps one running child process and a line scanner over its
// stdout. The Session that spawned it exclusively owns this handle
// (spec.md §9): only its End should ever touch the underlying *exec.Cmd.
type Decoder struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	stdout  io.ReadCloser
	logger  *log.Logger
	grace   time.Duration

	endOnce sync.Once
	endErr  error
}

// Spawn starts the decoder binary per spec, piping stdout for line reads and
// relaying stderr to logger at debug level. The process group is detached
// so Decoder.End can signal the whole group, not just the direct child.
func Spawn(ctx context.Context, spec Spec, logger *log.Logger) (*Decoder, error) {
	if spec.Bin == "" {
		return nil, fmt.Errorf("decoder: spawn: empty binary path")
	}

	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("decoder: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("decoder: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("decoder: start %s: %w", spec.Bin, err)
	}

	grace := spec.GraceAfter
	if grace <= 0 {
		grace = defaultGrace
	}

	d := &Decoder{
		cmd:     cmd,
		stdout:  stdout,
		scanner: bufio.NewScanner(stdout),
		logger:  logger,
		grace:   grace,
	}
	d.scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	go d.pipeStderr(stderr)

	return d, nil
}

func (d *Decoder) pipeStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		d.logger.Debug("decoder stderr", "line", scanner.Text())
	}
}

// ReadLine blocks until the child emits one stdout line or the scanner
// reaches EOF/error. Callers apply their own deadline by racing this
// against a timer on a separate goroutine (spec.md §4.3 Running-state
// select loop); ReadLine itself never times out.
func (d *Decoder) ReadLine() (string, error) {
	if d.scanner.Scan() {
		return d.scanner.Text(), nil
	}
	if err := d.scanner.Err(); err != nil {
		return "", fmt.Errorf("decoder: read: %w", err)
	}
	return "", io.EOF
}

// End sends SIGTERM to the process group, waits up to GraceAfter, then
// SIGKILLs. It always calls cmd.Wait so the child is reaped, and is safe to
// call more than once — only the first call does any work. A child killed by
// one of those signals counts as a clean end and yields a nil error.
func (d *Decoder) End() error {
	d.endOnce.Do(func() {
		d.endErr = d.end()
	})
	return d.endErr
}

func (d *Decoder) end() error {
	if d.cmd.Process == nil {
		return nil
	}

	pgid := d.cmd.Process.Pid

	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- d.cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(d.grace):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		err = <-done
	}

	// A child that died from the signal sent above ended as requested.
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return nil
		}
	}
	return err
}

// Pid returns the child's process id, for logging.
func (d *Decoder) Pid() int {
	if d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}
