// Package pavuterm provides a terminal mixer for PulseAudio: it lists playback and
// recording streams, devices and cards, and controls their volume, mute state and
// routing while the server pushes changes.
package pavuterm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/util"
)

// Pavuterm is the main entity managing all subcomponents
type Pavuterm struct {
	logger    *zap.SugaredLogger
	notifier  *DesktopNotifier
	configMan *ConfigManager
	metrics   *Metrics

	catalog    *pulseCatalog
	commands   *pulseCommands
	state      *SharedState
	terminal   *terminal
	dispatcher *dispatcher

	version string
	verbose bool
}

func NewPavuterm(logger *zap.SugaredLogger, configFile string, verbose bool) (*Pavuterm, error) {
	logger = logger.Named("pavuterm")

	notifier, err := NewDesktopNotifier(logger)
	if err != nil {
		logger.Errorw("Failed to create DesktopNotifier", "error", err)
		return nil, fmt.Errorf("create new DesktopNotifier: %w", err)
	}

	config, err := NewConfig(logger, notifier, configFile)
	if err != nil {
		logger.Errorw("Failed to create Config", "error", err)
		return nil, fmt.Errorf("create new Config: %w", err)
	}

	p := &Pavuterm{
		logger:    logger,
		notifier:  notifier,
		configMan: config,
		metrics:   NewMetrics(),
		verbose:   verbose,
	}

	logger.Debug("Created pavuterm instance")

	return p, nil
}

// Config exposes the config manager so the command line can bind flags before Initialize
func (p *Pavuterm) Config() *ConfigManager {
	return p.configMan
}

// SetVersion records the version string logged on startup
func (p *Pavuterm) SetVersion(version string) {
	p.version = version
}

// Verbose returns a boolean indicating whether pavuterm is running in verbose mode
func (p *Pavuterm) Verbose() bool {
	return p.verbose
}

// Initialize loads the config, connects to the server, takes over the terminal and runs
// until the operator quits or the connection is lost.
func (p *Pavuterm) Initialize(ctx context.Context) error {
	p.logger.Debugw("Initializing", "version", p.version)

	// load the config for the first time
	if err := p.configMan.Load(); err != nil {
		p.logger.Errorw("Failed to load config during initialization", "error", err)
		return fmt.Errorf("load config during init: %w", err)
	}

	conf := p.configMan.Current()
	p.applyConfig(conf)

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("pavuterm needs an interactive terminal, use `pavuterm list` for a snapshot")
	}

	catalog, err := newPulseCatalog(p.logger, conf.Server, conf.ClientName)
	if err != nil {
		p.logger.Errorw("Failed to connect to PulseAudio", "error", err)
		return fmt.Errorf("create new pulseCatalog: %w", err)
	}

	p.catalog = catalog
	p.commands = newPulseCommands(p.logger, catalog.client, p.metrics)
	p.state = NewSharedState(newAppState(conf.startView(), conf.HideMonitors, conf.volumeSettings()))

	screen, err := tcell.NewScreen()
	if err != nil {
		p.release()
		return fmt.Errorf("create screen: %w", err)
	}

	term, err := newTerminal(p.logger, screen)
	if err != nil {
		p.release()
		return fmt.Errorf("create new terminal: %w", err)
	}

	p.terminal = term
	p.dispatcher = newDispatcher(p.logger, catalog, p.state, term, p.metrics, conf.PollInterval)

	if err := p.dispatcher.initialize(); err != nil {
		p.terminal.fini()
		p.release()
		p.logger.Errorw("Failed to initialize dispatcher", "error", err)
		return fmt.Errorf("init dispatcher: %w", err)
	}

	return p.run(ctx, conf)
}

// applyConfig pushes the settings that can change at runtime into the components that
// use them.
func (p *Pavuterm) applyConfig(conf Config) {
	p.notifier.SetEnabled(conf.DesktopNotifications)

	if !p.verbose {
		if err := applyLogLevel(conf.LogLevel); err != nil {
			p.logger.Warnw("Failed to apply log level", "error", err)
		}
	}

	if p.state != nil {
		settings := conf.volumeSettings()
		p.state.Do(func(a *AppState) {
			a.Volume = settings
			a.Redraw = true
		})
	}
}

func (p *Pavuterm) setupInterruptHandler(cancel context.CancelFunc) {
	interruptChannel := util.SetupCloseHandler()

	go func() {
		signal := <-interruptChannel
		p.logger.Debugw("Interrupted", "signal", signal)
		cancel()
	}()
}

func (p *Pavuterm) run(ctx context.Context, conf Config) error {
	p.logger.Info("Run loop starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.setupInterruptHandler(cancel)

	go p.configMan.WatchConfigFileChanges()
	reloads := p.configMan.SubscribeToChanges()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer p.recoverFromPanic()
		return p.dispatcher.run(gctx)
	})

	g.Go(func() error {
		defer p.recoverFromPanic()
		return p.terminal.readInput(p.state, p.commands)
	})

	g.Go(func() error {
		defer p.recoverFromPanic()
		p.commands.run(gctx)
		return nil
	})

	g.Go(func() error {
		defer p.recoverFromPanic()
		return p.dispatcher.heartbeat(gctx, conf.HeartbeatInterval)
	})

	g.Go(func() error {
		defer p.recoverFromPanic()
		return p.watchConfigReloads(gctx, reloads)
	})

	if conf.MetricsAddr != "" {
		g.Go(func() error {
			defer p.recoverFromPanic()
			return p.metrics.serve(gctx, p.logger, conf.MetricsAddr)
		})
	}

	// releasing the screen wakes the input reader, which has no other way to notice
	g.Go(func() error {
		<-gctx.Done()
		p.state.Do(func(*AppState) {
			p.terminal.fini()
		})
		return nil
	})

	err := g.Wait()
	if errors.Is(err, errQuitRequested) {
		err = nil
	}

	if stopErr := p.stop(); stopErr != nil && err == nil {
		err = stopErr
	}

	return err
}

func (p *Pavuterm) watchConfigReloads(ctx context.Context, reloads chan bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reloads:
			p.logger.Info("Detected config reload, applying runtime settings")
			p.applyConfig(p.configMan.Current())
		}
	}
}

func (p *Pavuterm) release() {
	if err := p.catalog.Release(); err != nil {
		p.logger.Warnw("Failed to release catalog", "error", err)
	}
}

func (p *Pavuterm) stop() error {
	p.logger.Info("Stopping")

	p.configMan.StopWatchingConfigFile()

	if err := p.catalog.Release(); err != nil {
		p.logger.Errorw("Failed to release catalog", "error", err)
		return fmt.Errorf("release catalog: %w", err)
	}

	// attempt to sync on exit - this won't necessarily work but can't harm
	_ = p.logger.Sync()

	return nil
}
