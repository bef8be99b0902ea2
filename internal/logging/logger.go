package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Bootstrap configures the shared logger. Unknown levels fall back to info.
func Bootstrap(level string) {
	Log = &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		},
		Level:    logrus.InfoLevel,
		ExitFunc: os.Exit,
	}
	Log.SetReportCaller(true)

	if parsed, err := logrus.ParseLevel(level); err == nil {
		Log.SetLevel(parsed)
	} else if level != "" {
		Log.Warnf("unknown log level %q, using info", level)
	}
}
