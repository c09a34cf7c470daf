package pavuterm

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/util"
)

const (
	appName = "pavuterm"

	buildTypeNone    = ""
	buildTypeDev     = "dev"
	buildTypeRelease = "release"

	logFilename = "pavuterm-latest-run.log"
)

var (
	// the terminal belongs to the UI, so logs always go to a file
	logDirectory = filepath.Join(util.StateDir(appName), "logs")

	logLevel = zap.NewAtomicLevel()
)

// LogPath is where the current run logs to.
func LogPath() string {
	return filepath.Join(logDirectory, logFilename)
}

// NewLogger provides a logger instance for the whole program. Dev builds and verbose runs
// log at debug level, release builds at info.
func NewLogger(buildType string, verbose bool) (*zap.SugaredLogger, error) {
	var loggerConfig zap.Config

	if buildType == buildTypeNone || buildType == buildTypeDev {
		loggerConfig = zap.NewDevelopmentConfig()
		logLevel.SetLevel(zap.DebugLevel)
	} else {
		loggerConfig = zap.NewProductionConfig()
		logLevel.SetLevel(zap.InfoLevel)
	}

	if verbose {
		logLevel.SetLevel(zap.DebugLevel)
	}

	loggerConfig.Level = logLevel

	if err := util.EnsureDirExists(logDirectory); err != nil {
		return nil, fmt.Errorf("ensure log directory exists: %w", err)
	}

	loggerConfig.OutputPaths = []string{LogPath()}
	loggerConfig.ErrorOutputPaths = []string{LogPath()}
	loggerConfig.Encoding = "console"

	// make it look nice
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	loggerConfig.EncoderConfig.EncodeCaller = nil
	loggerConfig.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	loggerConfig.EncoderConfig.EncodeName = func(s string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%-27s", s))
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("create zap logger: %w", err)
	}

	return logger.Sugar(), nil
}

// applyLogLevel changes the level of every logger NewLogger created. An empty level
// leaves it alone.
func applyLogLevel(level string) error {
	if level == "" {
		return nil
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	logLevel.SetLevel(parsed)

	return nil
}
