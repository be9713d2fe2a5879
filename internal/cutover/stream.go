package cutover

import (
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/console"
)

const (
	taskMarker = "TASK ["
	syncMarker = "[Failback Replication Sync]"

	defaultTailSize = 20
)

// Stream routes playbook output. Task headers and replication sync lines
// are echoed to the console; every line goes to the log file when one is
// set, otherwise to the logger. The last lines are kept for diagnostics.
type Stream struct {
	mu       sync.Mutex
	console  *console.Console
	logFile  io.Writer
	tail     []string
	tailSize int
}

// NewStream returns a Stream. logFile may be nil.
func NewStream(c *console.Console, logFile io.Writer) *Stream {
	return &Stream{console: c, logFile: logFile, tailSize: defaultTailSize}
}

func (s *Stream) Line(kind StreamKind, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tail = append(s.tail, line)
	if len(s.tail) > s.tailSize {
		s.tail = s.tail[len(s.tail)-s.tailSize:]
	}

	if kind == Stderr {
		if s.logFile != nil {
			s.write(line)
			s.console.Line(console.LevelWarn, line)
		} else {
			log.Warn(line)
		}
		return
	}

	switch {
	case strings.Contains(line, taskMarker):
		s.console.Line(console.LevelInfo, "\n"+line+"\n")
	case strings.Contains(line, syncMarker):
		s.console.Line(console.LevelInfo, line)
	}
	if s.logFile != nil {
		s.write(line)
	} else {
		log.Debug(line)
	}
}

func (s *Stream) write(line string) {
	if _, err := fmt.Fprintln(s.logFile, line); err != nil {
		log.WithError(err).Warn("Failed to write playbook output to log file")
	}
}

// Tail returns the most recent lines, oldest first.
func (s *Stream) Tail() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tail...)
}

// Reset drops the captured tail before the next phase.
func (s *Stream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tail = nil
}
