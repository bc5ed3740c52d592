package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"warn", logrus.WarnLevel, false},
		{"chatty", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Options{Level: tt.level, Output: &bytes.Buffer{}})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for invalid level")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if logger.GetLevel() != tt.want {
				t.Errorf("level: got %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNew_FormatsCallerAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf, NoColors: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithField("run_id", "abc").Info("Capture complete")

	out := buf.String()
	if !strings.Contains(out, "Capture complete") {
		t.Errorf("message missing: %q", out)
	}
	if !strings.Contains(out, "run_id:abc") {
		t.Errorf("field missing: %q", out)
	}
	if !strings.Contains(out, "[logging_test.go:") {
		t.Errorf("caller missing: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("NoColors output should have no escape codes: %q", out)
	}
}

func TestNew_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "reader.log")
	logger, err := New(Options{Output: &bytes.Buffer{}, File: file, NoColors: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Warn("written to disk")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to disk") {
		t.Errorf("log file content: %q", data)
	}
}
