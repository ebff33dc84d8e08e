package avplayer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide logger. ConfigureLogging sets its level and
// output at startup;
// callers that want per-stage attribution should call
// Log.WithField("stage", ...) rather than logging through Log directly.
var Log = logrus.New()

// levelNames are the accepted --loglevel values, in addition to "off".
var levelNames = map[string]logrus.Level{
	"trace":    logrus.TraceLevel,
	"debug":    logrus.DebugLevel,
	"info":     logrus.InfoLevel,
	"warn":     logrus.WarnLevel,
	"error":    logrus.ErrorLevel,
	"critical": logrus.ErrorLevel,
}

// ConfigureLogging points Log at the right output/level for (levelName,
// logDir). levelName must be one of trace/debug/info/warn/error/critical/off.
// A non-empty logDir redirects output to <logDir>/avplayer.log, created if
// necessary; an empty logDir leaves output on stderr.
func ConfigureLogging(levelName, logDir string) error {
	if levelName == "off" {
		Log.SetOutput(io.Discard)
		return nil
	}

	level, ok := levelNames[levelName]
	if !ok {
		return fmt.Errorf("avplayer: unknown log level %q", levelName)
	}
	Log.SetLevel(level)

	if logDir == "" {
		Log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "avplayer.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	Log.SetOutput(f)
	return nil
}

// criticalField returns an Entry with the critical marker set, used for
// the "critical" level which has no native logrus level above Error short
// of the process-terminating Fatal/Panic.
func criticalField(entry *logrus.Entry) *logrus.Entry {
	return entry.WithField("critical", true)
}

// LogCritical logs msg at Error level with the critical marker field set.
func LogCritical(entry *logrus.Entry, msg string) {
	criticalField(entry).Error(msg)
}
