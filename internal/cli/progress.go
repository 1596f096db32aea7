package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// progress tracks the duration of a long-running step and logs a
// completion message with the elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(logger *log.Logger) *progress {
	return &progress{logger: logger, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Info(fmt.Sprintf("%s (%.3fs)", msg, time.Since(p.start).Seconds()))
}
