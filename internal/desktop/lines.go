package desktop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"wrapbeep.click/internal/trigger"
)

// maxLineBytes bounds a single JSON line.
const maxLineBytes = 1 << 20

// LineSource reads newline-delimited JSON messages, e.g. from stdin, and
// dispatches them as events.
type LineSource struct {
	*trigger.Emitter

	reader io.Reader
	logger *slog.Logger
}

// NewLineSource creates a source over r.
func NewLineSource(r io.Reader, logger *slog.Logger) *LineSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineSource{
		Emitter: trigger.NewEmitter(logger),
		reader:  r,
		logger:  logger,
	}
}

// Run dispatches lines until the reader is exhausted or ctx is cancelled.
// Blank and malformed lines are skipped. Reaching EOF returns nil.
func (s *LineSource) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		ev, err := ParseMessage(scanner.Bytes())
		if errors.Is(err, ErrEmptyMessage) {
			continue
		}
		if err != nil {
			s.logger.Warn("skipping malformed event line", "line", lineNo, "error", err)
			continue
		}
		s.Emit(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	s.logger.Debug("event stream ended", "lines", lineNo)
	return nil
}
