package pavuterm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/util"
	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

type ConfigManager struct {
	logger             *zap.SugaredLogger
	notifier           Notifier
	stopWatcherChannel chan bool

	reloadConsumers []chan bool

	userConfig *viper.Viper
	configFile string // explicit --config path, empty to search

	lock    sync.RWMutex
	current Config
}

type Config struct {
	Server     string `mapstructure:"server"`
	ClientName string `mapstructure:"client_name"`

	StartView    string `mapstructure:"start_view"`
	HideMonitors bool   `mapstructure:"hide_monitors"`

	PollInterval      time.Duration `mapstructure:"poll_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`

	Volume struct {
		SmallStep    uint32 `mapstructure:"small_step"`
		BigStep      uint32 `mapstructure:"big_step"`
		LimitPercent uint32 `mapstructure:"limit_percent"`
	} `mapstructure:"volume"`

	DesktopNotifications bool   `mapstructure:"desktop_notifications"`
	MetricsAddr          string `mapstructure:"metrics_addr"`
	LogLevel             string `mapstructure:"log_level"`
}

const (
	userConfigName = "config"
	configType     = "yaml"

	configKeyServer               = "server"
	configKeyClientName           = "client_name"
	configKeyStartView            = "start_view"
	configKeyHideMonitors         = "hide_monitors"
	configKeyPollInterval         = "poll_interval"
	configKeyHeartbeatInterval    = "heartbeat_interval"
	configKeySmallStep            = "volume.small_step"
	configKeyBigStep              = "volume.big_step"
	configKeyLimitPercent         = "volume.limit_percent"
	configKeyDesktopNotifications = "desktop_notifications"
	configKeyMetricsAddr          = "metrics_addr"
	configKeyLogLevel             = "log_level"

	defaultSmallStep uint32 = 655  // about 1%
	defaultBigStep   uint32 = 6554 // about 10%
)

var logLevels = []string{"", "debug", "info", "warn", "error"}

func NewConfig(logger *zap.SugaredLogger, notifier Notifier, configFile string) (*ConfigManager, error) {
	logger = logger.Named("config")

	cc := &ConfigManager{
		logger:             logger,
		notifier:           notifier,
		reloadConsumers:    []chan bool{},
		stopWatcherChannel: make(chan bool),
		configFile:         configFile,
	}

	userConfig := viper.New()
	if configFile != "" {
		userConfig.SetConfigFile(configFile)
	} else {
		userConfig.SetConfigName(userConfigName)
		userConfig.AddConfigPath(util.ConfigDir(appName))
		userConfig.AddConfigPath(".")
	}
	userConfig.SetConfigType(configType)

	userConfig.SetDefault(configKeyServer, "")
	userConfig.SetDefault(configKeyClientName, appName)
	userConfig.SetDefault(configKeyStartView, ViewSinkInputs.String())
	userConfig.SetDefault(configKeyHideMonitors, true)
	userConfig.SetDefault(configKeyPollInterval, 10*time.Millisecond)
	userConfig.SetDefault(configKeyHeartbeatInterval, time.Second)
	userConfig.SetDefault(configKeySmallStep, defaultSmallStep)
	userConfig.SetDefault(configKeyBigStep, defaultBigStep)
	userConfig.SetDefault(configKeyLimitPercent, uint32(0))
	userConfig.SetDefault(configKeyDesktopNotifications, false)
	userConfig.SetDefault(configKeyMetricsAddr, "")
	userConfig.SetDefault(configKeyLogLevel, "")

	cc.userConfig = userConfig

	logger.Debug("Created config instance")

	return cc, nil
}

// BindFlag lets a command line flag override a config key when the flag is given.
func (cc *ConfigManager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind flag for %s: no such flag", key)
	}

	if err := cc.userConfig.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind flag for %s: %w", key, err)
	}

	return nil
}

// Load reads the config file if there is one and validates the result. A missing file
// is fine: every key has a default.
func (cc *ConfigManager) Load() error {
	cc.logger.Debug("Loading config")

	if err := cc.userConfig.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cc.logger.Warnw("Viper failed to read user config", "error", err)

			// if the error is yaml-format-related, show a sensible error. otherwise, show 'em to the logs
			if strings.Contains(err.Error(), "yaml:") {
				cc.notifier.Notify("Invalid configuration!", "Please make sure config.yaml is in a valid YAML format.")
			} else {
				cc.notifier.Notify("Error loading configuration!", "Please check pavuterm's logs for more details.")
			}

			return fmt.Errorf("read user config: %w", err)
		}

		cc.logger.Debugw("No config file found, using defaults", "reminder", "this is fine")
	}

	// canonize the configuration with viper's helpers
	conf, err := cc.populateFromVipers()
	if err != nil {
		cc.logger.Warnw("Failed to populate config fields", "error", err)
		return fmt.Errorf("populate config fields: %w", err)
	}

	if err := conf.validate(); err != nil {
		cc.logger.Warnw("Invalid config", "error", err)
		return fmt.Errorf("validate config: %w", err)
	}

	cc.lock.Lock()
	cc.current = conf
	cc.lock.Unlock()

	cc.logger.Info("Loaded config successfully")
	cc.logger.Infow("Config values",
		"file", cc.userConfig.ConfigFileUsed(),
		"server", conf.Server,
		"startView", conf.StartView,
		"hideMonitors", conf.HideMonitors,
		"pollInterval", conf.PollInterval,
		"smallStep", conf.Volume.SmallStep,
		"bigStep", conf.Volume.BigStep,
		"limitPercent", conf.Volume.LimitPercent)

	return nil
}

// Current returns a copy of the last successfully loaded config
func (cc *ConfigManager) Current() Config {
	cc.lock.RLock()
	defer cc.lock.RUnlock()

	return cc.current
}

// SubscribeToChanges allows external components to receive updates when the config is
// reloaded. Reloads that happen while a consumer is busy are coalesced.
func (cc *ConfigManager) SubscribeToChanges() chan bool {
	c := make(chan bool, 1)
	cc.reloadConsumers = append(cc.reloadConsumers, c)

	return c
}

// WatchConfigFileChanges starts watching for configuration file changes
// and attempts reloading the config when they happen
func (cc *ConfigManager) WatchConfigFileChanges() {
	path := cc.userConfig.ConfigFileUsed()
	if path == "" || !util.FileExists(path) {
		cc.logger.Debug("No config file to watch")
		<-cc.stopWatcherChannel
		return
	}

	cc.logger.Debugw("Starting to watch user config file for changes", "path", path)

	const (
		minTimeBetweenReloadAttempts = time.Millisecond * 500
		delayBetweenEventAndReload   = time.Millisecond * 50
	)

	lastAttemptedReload := time.Now()

	// establish watch using viper as opposed to doing it ourselves, though our internal cooldown is still required
	cc.userConfig.WatchConfig()
	cc.userConfig.OnConfigChange(func(event fsnotify.Event) {
		if event.Op&fsnotify.Write == fsnotify.Write {
			now := time.Now()

			// ... check if it's not a duplicate (many editors will write to a file twice)
			if lastAttemptedReload.Add(minTimeBetweenReloadAttempts).Before(now) {
				cc.logger.Debugw("Config file modified, attempting reload", "event", event)

				// wait a bit to let the editor actually flush the new file contents to disk
				<-time.After(delayBetweenEventAndReload)

				if err := cc.Load(); err != nil {
					cc.logger.Warnw("Failed to reload config file", "error", err)
				} else {
					cc.logger.Info("Reloaded config successfully")
					cc.notifier.Notify("Configuration reloaded!", "Your changes have been applied.")

					cc.onConfigReloaded()
				}

				lastAttemptedReload = now
			}
		}
	})

	// wait till they stop us
	<-cc.stopWatcherChannel
	cc.logger.Debug("Stopping user config file watcher")
	cc.userConfig.OnConfigChange(func(fsnotify.Event) {})
}

// StopWatchingConfigFile signals our filesystem watcher to stop
func (cc *ConfigManager) StopWatchingConfigFile() {
	cc.stopWatcherChannel <- true
}

func (cc *ConfigManager) populateFromVipers() (Config, error) {
	var conf Config

	err := cc.userConfig.Unmarshal(&conf, func(dConf *mapstructure.DecoderConfig) {
		dConf.WeaklyTypedInput = false
		dConf.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	})
	if err != nil {
		return Config{}, err
	}

	cc.logger.Debug("Populated config fields from vipers")

	return conf, nil
}

func (cc *ConfigManager) onConfigReloaded() {
	cc.logger.Debug("Notifying consumers about configuration reload")

	for _, consumer := range cc.reloadConsumers {
		select {
		case consumer <- true:
		default:
		}
	}
}

func (c Config) validate() error {
	if !funk.ContainsString(viewNames, c.StartView) {
		return fmt.Errorf("unknown start_view %q, expected one of %s", c.StartView, strings.Join(viewNames, ", "))
	}

	if !funk.ContainsString(logLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	if c.ClientName == "" {
		return errors.New("client_name must not be empty")
	}

	if c.PollInterval <= 0 || c.HeartbeatInterval <= 0 {
		return errors.New("poll_interval and heartbeat_interval must be positive")
	}

	if c.Volume.SmallStep == 0 || c.Volume.BigStep == 0 {
		return errors.New("volume steps must be positive")
	}

	return nil
}

// startView returns the configured initial view.
func (c Config) startView() View {
	view, _ := viewFromString(c.StartView)
	return view
}

func (c Config) volumeSettings() VolumeSettings {
	return VolumeSettings{
		SmallStep: c.Volume.SmallStep,
		BigStep:   c.Volume.BigStep,
		Limit:     volume.LimitFromPercent(c.Volume.LimitPercent),
	}
}
