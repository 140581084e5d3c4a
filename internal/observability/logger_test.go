// internal/observability/logger_test.go
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
)

// syncBuffer adapts a zaptest buffer as the console writer so each subtest can
// inspect its own output without touching os.Stdout.
func newTestWriter() *zaptest.Buffer {
	return &zaptest.Buffer{}
}

func TestInitialize(t *testing.T) {

	t.Run("console format colorizes the level", func(t *testing.T) {
		ResetForTest()
		buf := newTestWriter()

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
		}
		Initialize(cfg, buf)
		logger := GetLogger()
		logger.Info("This is a test message.")
		require.NoError(t, logger.Sync())

		output := buf.String()
		assert.Contains(t, output, "INFO", "Output should contain the log level")
		assert.Contains(t, output, "This is a test message.", "Output should contain the message")
		assert.Contains(t, output, colorGreen, "Info level should be colorized green")
		assert.Contains(t, output, colorReset, "Output should contain the reset color code")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		ResetForTest()
		buf := newTestWriter()

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}
		Initialize(cfg, buf)
		logger := GetLogger()
		logger.Warn("This is a JSON message.", zap.String("key", "value"))
		require.NoError(t, logger.Sync())

		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(buf.Lines()[0]), &logEntry)
		require.NoError(t, err, "Log output should be valid JSON")

		assert.Equal(t, "warn", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("writes to a log file if configured", func(t *testing.T) {
		ResetForTest()
		logPath := filepath.Join(t.TempDir(), "logger-test.log")

		cfg := config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logPath,
			MaxSize: 1, // 1 MB
		}
		Initialize(cfg, newTestWriter())
		logger := GetLogger()
		logger.Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.", "Log file should contain the message")
	})

	t.Run("only initializes once", func(t *testing.T) {
		ResetForTest()
		buf := newTestWriter()

		// -- first initialization --
		cfg1 := config.LoggerConfig{Level: "info", ServiceName: "First"}
		Initialize(cfg1, buf)
		logger1 := GetLogger()

		// -- second, should be ignored --
		cfg2 := config.LoggerConfig{Level: "debug", ServiceName: "Second"}
		Initialize(cfg2, buf)
		logger2 := GetLogger()

		assert.Equal(t, logger1, logger2)
		logger2.Info("test")
		require.NoError(t, logger2.Sync())

		// The service name should be "First", not "Second".
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		buf := newTestWriter()

		cfg := config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "LevelTest"}
		Initialize(cfg, buf)
		logger := GetLogger()
		logger.Debug("suppressed")
		logger.Info("visible")
		require.NoError(t, logger.Sync())

		assert.NotContains(t, buf.String(), "suppressed")
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("returns a fallback logger if not initialized", func(t *testing.T) {
		ResetForTest()
		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("returns the global logger after initialization", func(t *testing.T) {
		ResetForTest()
		cfg := config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"}
		Initialize(cfg, newTestWriter())

		logger := GetLogger()
		assert.Equal(t, globalLogger.Load(), logger)
	})
}

var _ zapcore.WriteSyncer = (*zaptest.Buffer)(nil)
