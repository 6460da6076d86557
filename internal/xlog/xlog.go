// Package xlog builds the supervisor's charmbracelet/log logger: a
// colorized console writer plus an optional rotating file sink, with
// level control driven by the -q/-v flags (config.Config.Quiet/Verbose).
//
// Grounded on the teacher's text_color_set/dw_printf console coloring
// convention (src/textcolor.go) generalized to the structured logger its
// own go.mod already depends on, and on src/dns_sd.go's announcement
// pattern for the optional control-plane mDNS advertisement.
package xlog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceType is the DNS-SD service type the control plane advertises.
const ServiceType = "_xng-ctl._tcp"

// Options configures New.
type Options struct {
	Quiet     bool
	Verbose   int
	FilePath  string // rotating log file path; empty disables file output
	MaxSizeMB int    // lumberjack MaxSize; defaults to 50 if zero
}

// New builds the process-wide logger. Console output always goes to
// stderr; when FilePath is set, log lines are duplicated to a
// lumberjack-rotated file as well.
func New(opts Options) *log.Logger {
	var out io.Writer = os.Stderr

	if opts.FilePath != "" {
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = 50
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSize,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	logger.SetLevel(levelFor(opts.Quiet, opts.Verbose))

	return logger
}

// levelFor maps the common -q/-v flags (common/arguments.rs) onto a
// charmbracelet/log level: quiet silences everything but errors, and
// each -v drops the threshold by one step below the default Warn level
// (-v gives Info, -vv and more give Debug).
func levelFor(quiet bool, verbose int) log.Level {
	if quiet {
		return log.ErrorLevel
	}
	switch {
	case verbose >= 2:
		return log.DebugLevel
	case verbose == 1:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

// Announcer advertises the control-plane HTTP endpoint over mDNS/DNS-SD
// so operators on the same network can discover it without typing in an
// IP and port (spec.md's control-plane module; teacher: src/dns_sd.go).
type Announcer struct {
	responder dnssd.Responder
	logger    *log.Logger
}

// NewAnnouncer creates and registers a DNS-SD service record for name on
// port. Callers must run Respond in a goroutine to actually answer
// queries; Respond blocks until ctx is canceled.
func NewAnnouncer(logger *log.Logger, name string, port int) (*Announcer, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("xlog: create dnssd service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("xlog: create dnssd responder: %w", err)
	}

	if _, err := rp.Add(svc); err != nil {
		return nil, fmt.Errorf("xlog: add dnssd service: %w", err)
	}

	return &Announcer{responder: rp, logger: logger}, nil
}

// Respond answers DNS-SD queries until ctx is canceled. Intended to be
// run in its own goroutine by the caller.
func (a *Announcer) Respond(ctx context.Context) {
	if err := a.responder.Respond(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error("dns-sd responder stopped", "err", err)
	}
}
