package pavuterm

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// terminal owns the tcell screen: it renders frames and reads keystrokes.
type terminal struct {
	logger *zap.SugaredLogger
	screen tcell.Screen

	finiOnce sync.Once

	// guarded by the state lock, like everything Render touches
	needSync bool
	offsets  [viewCount]int
}

func newTerminal(logger *zap.SugaredLogger, screen tcell.Screen) (*terminal, error) {
	logger = logger.Named("terminal")

	if err := screen.Init(); err != nil {
		logger.Warnw("Failed to initialize screen", "error", err)
		return nil, fmt.Errorf("initialize screen: %w", err)
	}

	screen.HideCursor()
	screen.Clear()

	logger.Debug("Created terminal instance")

	return &terminal{
		logger: logger,
		screen: screen,
	}, nil
}

// fini restores the terminal. It is safe to call more than once and from any goroutine;
// it also makes a pending PollEvent return nil, which ends readInput.
func (t *terminal) fini() {
	t.finiOnce.Do(t.screen.Fini)
}

// readInput is the input context: it blocks on keystrokes and applies each one to the
// shared state under the lock. It returns once the screen has been finalized.
func (t *terminal) readInput(state *SharedState, cmds CommandChannel) error {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			t.logger.Debug("Screen finalized, input reader exiting")
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			key := keyFromEvent(ev)
			state.Do(func(a *AppState) {
				a.handleKey(key, cmds)
			})

		case *tcell.EventResize:
			state.Do(func(a *AppState) {
				t.needSync = true
				a.Redraw = true
			})
		}
	}
}
