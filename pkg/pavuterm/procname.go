package pavuterm

import (
	"strconv"

	"github.com/mitchellh/go-ps"
	"go.uber.org/zap"
)

// processNamer fills in a stream's application name from its process when the client
// did not announce one.
type processNamer struct {
	logger *zap.SugaredLogger
	find   func(pid int) (ps.Process, error)
}

func newProcessNamer(logger *zap.SugaredLogger) *processNamer {
	return &processNamer{
		logger: logger,
		find:   ps.FindProcess,
	}
}

func (n *processNamer) decorate(props Props) {
	if _, ok := props[propApplicationName]; ok {
		return
	}

	pidString, ok := props[propProcessID]
	if !ok {
		return
	}

	pid, err := strconv.Atoi(pidString)
	if err != nil {
		n.logger.Debugw("Stream has a malformed process id", "pid", pidString)
		return
	}

	// FindProcess returns a nil process without error when the pid is gone
	process, err := n.find(pid)
	if err != nil || process == nil {
		return
	}

	props[propApplicationName] = process.Executable()
	if _, ok := props[propProcessBinary]; !ok {
		props[propProcessBinary] = process.Executable()
	}
}
