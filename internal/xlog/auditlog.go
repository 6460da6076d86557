package xlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// AuditLog appends raw decoder stdout lines to a daily-rotated file,
// opening a new file the first time a line's date differs from the
// currently open one. Grounded on the teacher's xmit.go/tq.go use of
// strftime.Format for its own timestamped audio save filenames,
// generalized here from a filename timestamp suffix to a full
// day-rotation boundary.
type AuditLog struct {
	mu       sync.Mutex
	dir      string
	pattern  string
	curDay   string
	file     *os.File
}

// defaultPattern names one audit file per UTC calendar day.
const defaultPattern = "xng-%Y-%m-%d.jsonl"

// NewAuditLog prepares an AuditLog writing into dir. dir is created if
// missing; no file is opened until the first Write.
func NewAuditLog(dir string) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("xlog: create audit log dir %s: %w", dir, err)
	}
	return &AuditLog{dir: dir, pattern: defaultPattern}, nil
}

// Write appends line to the current day's audit file, rotating to a new
// file first if the day has changed since the last write.
func (a *AuditLog) Write(line []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	name, err := strftime.Format(a.pattern, now)
	if err != nil {
		return 0, fmt.Errorf("xlog: format audit log filename: %w", err)
	}

	if name != a.curDay {
		if a.file != nil {
			a.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(a.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("xlog: open audit log %s: %w", name, err)
		}
		a.file = f
		a.curDay = name
	}

	n, err := a.file.Write(line)
	if err == nil {
		a.file.Write([]byte("\n"))
	}
	return n, err
}

// Close releases the currently open audit file, if any.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
