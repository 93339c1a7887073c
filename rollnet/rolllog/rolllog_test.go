package rolllog

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	closer, err := Setup(Options{Dir: dir, Level: logrus.InfoLevel, Console: &console})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer logrus.SetOutput(os.Stderr)

	logrus.Debug("hidden")
	logrus.WithField("session", "abc").Info("visible")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := console.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	for _, want := range []string{"visible", "session=abc", "rolllog_test.go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q does not contain %q", out, want)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "rollnet_") {
		t.Fatalf("log directory holds %v (%v), want one rollnet_ file", entries, err)
	}
	data, _ := os.ReadFile(dir + "/" + entries[0].Name())
	if !strings.Contains(string(data), "visible") {
		t.Errorf("log file %q does not contain the info line", data)
	}
}

func TestFormatFilePath(t *testing.T) {
	if got := formatFilePath("/a/b/netplay.go"); got != "netplay.go" {
		t.Errorf("formatFilePath() = %q, want netplay.go", got)
	}
}
