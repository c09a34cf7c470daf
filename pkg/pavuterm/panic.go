package pavuterm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/util"
)

const (
	crashlogFilename        = "pavuterm-crash-%s.log"
	crashlogTimestampFormat = "2006.01.02-15.04.05"

	crashMessage = `pavuterm stopped after an internal error.
The terminal was restored before this report was written.

Time: %s
Panic: %v

Stack:
%s
`
)

// writeCrashlog stores the panic value and stack in dir and returns the file's path.
func writeCrashlog(dir string, now time.Time, r any, stack []byte) (string, error) {
	if err := util.EnsureDirExists(dir); err != nil {
		return "", fmt.Errorf("ensure crashlog dir exists: %w", err)
	}

	crashlogBytes := bytes.NewBufferString(fmt.Sprintf(crashMessage, now.Format(crashlogTimestampFormat), r, stack))
	crashlogPath := filepath.Join(dir, fmt.Sprintf(crashlogFilename, now.Format(crashlogTimestampFormat)))

	if err := os.WriteFile(crashlogPath, crashlogBytes.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write crashlog file contents: %w", err)
	}

	return crashlogPath, nil
}

// recoverFromPanic is deferred at the top of every goroutine pavuterm starts. An invariant
// violation is a defect: restore the terminal, leave a crashlog and exit.
func (p *Pavuterm) recoverFromPanic() {
	r := recover()

	if r == nil {
		return
	}

	stack := debug.Stack()

	// the screen has to go first, or nothing below is readable
	if p.terminal != nil {
		p.terminal.fini()
	}

	crashlogPath, err := writeCrashlog(logDirectory, time.Now(), r, stack)
	if err != nil {
		p.logger.Errorw("Failed to write crashlog", "error", err)
		fmt.Fprintf(os.Stderr, crashMessage, time.Now().Format(crashlogTimestampFormat), r, stack)
	} else {
		fmt.Fprintf(os.Stderr, "pavuterm crashed, details in %s\n", crashlogPath)
	}

	p.logger.Errorw("Encountered and logged panic, crashing",
		"crashlogPath", crashlogPath,
		"error", r)

	p.notifier.Notify("Unexpected crash occurred...",
		fmt.Sprintf("More details in %s", crashlogPath))

	p.logger.Errorw("Quitting", "exitCode", 1)
	_ = p.logger.Sync()
	os.Exit(1)
}
