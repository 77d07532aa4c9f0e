package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gpexport.log")

	logger, err := New("info", logFile)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("stage finished")
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "stage finished") {
		t.Errorf("log file missing info line: %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("log file contains debug line below threshold: %q", data)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Error("New() expected error for unknown level")
	}
}
