package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Plugin is one output of the logger.
type Plugin = zapcore.Core

// NewLogger builds a logger over plugin with the default options followed by options.
func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

// NewStderrPlugin writes JSON lines to stderr.
func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// NewFilePlugin returns a rotating file core. lumberjack does not expose Sync,
// so the returned closer must be closed before exit to flush the file.
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	writer := DefaultLumberjackLogger()
	writer.Filename = filePath

	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

// Setup builds the process logger: stderr always, plus filePath when set.
// The closer is a no-op when there is no file.
func Setup(level, filePath string) (*zap.Logger, io.Closer, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}

	plugins := []Plugin{NewStderrPlugin(lvl)}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		var p Plugin
		p, closer = NewFilePlugin(filePath, lvl)
		plugins = append(plugins, p)
	}

	return NewLogger(zapcore.NewTee(plugins...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
