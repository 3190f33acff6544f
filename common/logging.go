package common

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger
)

// Logger returns the process-wide structured logger shared by every engine package.
// It writes text-formatted entries to stderr at Info level until SetLogLevel is called.
//
// Returns:
//   - *logrus.Logger: the shared logger
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

// ComponentLogger returns a log entry tagged with the given component name.
//
// Parameters:
//   - component: the name of the emitting component (e.g. "skeleton", "animator")
//
// Returns:
//   - *logrus.Entry: the tagged entry
func ComponentLogger(component string) *logrus.Entry {
	return Logger().WithField("component", component)
}

// SetLogLevel parses and applies a logrus level name (trace, debug, info, warn, error).
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - error: error if the level name is not recognised
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	Logger().SetLevel(lvl)
	return nil
}
