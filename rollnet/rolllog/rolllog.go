// Package rolllog configures the standard logrus logger for rollnet hosts.
package rolllog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Dir receives rollnet_<date>.log; no file is written when empty.
	Dir     string
	Level   logrus.Level
	Console io.Writer
}

// Setup installs the formatter and outputs on the standard logger. The
// returned closer releases the log file.
func Setup(opts Options) (io.Closer, error) {
	writers := []io.Writer{}
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	var file *os.File
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		date := time.Now().Format("2006_01_02_15.04.05")
		var err error
		file, err = os.OpenFile(filepath.Join(opts.Dir, "rollnet_"+date+".log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, file)
	}
	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetLevel(opts.Level)

	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		TimestampFormat:        "02-01-2006 15:04:05", // the "time" field configuration
		FullTimestamp:          true,
		DisableLevelTruncation: true, // log level field configuration
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", formatFilePath(f.File), f.Line)
		},
	}
	logrus.SetFormatter(formatter)

	if file == nil {
		return io.NopCloser(nil), nil
	}
	return file, nil
}

func formatFilePath(path string) string {
	arr := strings.Split(path, "/")
	return arr[len(arr)-1]
}
