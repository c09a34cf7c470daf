package pavuterm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

type recordingNotifier struct {
	titles []string
}

func (rn *recordingNotifier) Notify(title string, message string) {
	rn.titles = append(rn.titles, title)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func loadConfig(t *testing.T, path string) (*ConfigManager, *recordingNotifier, error) {
	t.Helper()

	notifier := &recordingNotifier{}
	cm, err := NewConfig(zap.NewNop().Sugar(), notifier, path)
	require.NoError(t, err)

	return cm, notifier, cm.Load()
}

func TestConfig_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cm, _, err := loadConfig(t, "")
	require.NoError(t, err)

	conf := cm.Current()
	assert.Equal(t, "", conf.Server)
	assert.Equal(t, appName, conf.ClientName)
	assert.Equal(t, ViewSinkInputs, conf.startView())
	assert.True(t, conf.HideMonitors)
	assert.Equal(t, 10*time.Millisecond, conf.PollInterval)
	assert.Equal(t, time.Second, conf.HeartbeatInterval)
	assert.Equal(t, defaultVolumeSettings(), conf.volumeSettings())
	assert.False(t, conf.DesktopNotifications)
}

func TestConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
server: unix:/run/user/1000/pulse/native
start_view: cards
hide_monitors: false
poll_interval: 25ms
heartbeat_interval: 3s
volume:
  small_step: 1000
  big_step: 5000
  limit_percent: 150
desktop_notifications: true
log_level: warn
`)

	cm, _, err := loadConfig(t, path)
	require.NoError(t, err)

	conf := cm.Current()
	assert.Equal(t, "unix:/run/user/1000/pulse/native", conf.Server)
	assert.Equal(t, ViewCards, conf.startView())
	assert.False(t, conf.HideMonitors)
	assert.Equal(t, 25*time.Millisecond, conf.PollInterval)
	assert.Equal(t, 3*time.Second, conf.HeartbeatInterval)
	assert.Equal(t, VolumeSettings{SmallStep: 1000, BigStep: 5000, Limit: volume.Norm * 3 / 2}, conf.volumeSettings())
	assert.True(t, conf.DesktopNotifications)
	assert.Equal(t, "warn", conf.LogLevel)
}

func TestConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"unknown view", "start_view: mixer\n"},
		{"unknown log level", "log_level: chatty\n"},
		{"empty client name", "client_name: \"\"\n"},
		{"zero poll interval", "poll_interval: 0s\n"},
		{"zero step", "volume:\n  small_step: 0\n"},
		{"wrong type", "hide_monitors: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, _, err := loadConfig(t, writeConfig(t, tt.contents))
			assert.Error(t, err)
			assert.Equal(t, Config{}, cm.Current(), "a rejected config is never applied")
		})
	}
}

func TestConfig_InvalidYAMLNotifies(t *testing.T) {
	_, notifier, err := loadConfig(t, writeConfig(t, "server: [unterminated\n"))

	require.Error(t, err)
	assert.Len(t, notifier.titles, 1)
}

func TestConfig_FlagOverridesFile(t *testing.T) {
	path := writeConfig(t, "start_view: sinks\nserver: from-file\n")

	notifier := &recordingNotifier{}
	cm, err := NewConfig(zap.NewNop().Sugar(), notifier, path)
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("view", "", "")
	flags.String("server", "", "")
	require.NoError(t, flags.Parse([]string{"--view", "sources"}))

	require.NoError(t, cm.BindFlag(configKeyStartView, flags.Lookup("view")))
	require.NoError(t, cm.BindFlag(configKeyServer, flags.Lookup("server")))
	require.NoError(t, cm.Load())

	assert.Equal(t, ViewSources, cm.Current().startView())
	assert.Equal(t, "from-file", cm.Current().Server, "unset flags do not override")

	assert.Error(t, cm.BindFlag(configKeyServer, flags.Lookup("missing")))
}

func TestConfig_ReloadConsumersCoalesce(t *testing.T) {
	cm, _, err := loadConfig(t, writeConfig(t, "server: a\n"))
	require.NoError(t, err)

	reloads := cm.SubscribeToChanges()

	cm.onConfigReloaded()
	cm.onConfigReloaded()

	assert.Len(t, reloads, 1)
}
