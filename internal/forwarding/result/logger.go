// Package result records terminal forwarding outcomes: one log artifact per
// invocation plus the operational log. No outcome is silently dropped.
package result

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aqslabs/forwarder/internal/core/amount"
)

// Logger appends terminal outcomes to per-invocation artifacts in a fixed
// directory, named by timestamp.
type Logger struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// New creates a result logger writing into dir, creating it if needed.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Logger{
		dir: dir,
		log: slog.Default(),
		now: time.Now,
	}, nil
}

// Record writes one outcome line. An artifact write failure is reported on
// the operational log only; it never propagates into the stream loop.
func (l *Logger) Record(invocationID, destination string, stroops int64, success bool, message string) {
	ts := l.now().UTC()
	xlm := amount.FormatStroops(stroops)

	line := fmt.Sprintf("%s - Transaction to %s for %s XLM: ", ts.Format(time.RFC3339), destination, xlm)
	if success {
		line += "Success\n"
		l.log.Info("Forward recorded", "destination", destination, "amount", xlm, "invocation", invocationID)
	} else {
		line += "Failed - " + message + "\n"
		l.log.Warn("Forward failure recorded",
			"destination", destination, "amount", xlm, "reason", message, "invocation", invocationID)
	}

	name := fmt.Sprintf("forward_%s_%s.log", ts.Format("2006-01-02_15-04-05"), shortID(invocationID))
	path := filepath.Join(l.dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.Error("Failed to open result artifact", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		l.log.Error("Failed to write result artifact", "path", path, "error", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
