package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithRotateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crm.log")
	l, cleanup := NewWithRotate("info", true, path, 1, 1, 1, false)
	l.Info("lead created", zap.String("lead_id", "L1"))
	l.Debug("below level")
	cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"lead created"`) || !strings.Contains(out, `"lead_id":"L1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "below level") {
		t.Fatalf("debug line written at info level: %s", out)
	}
}

func TestFromConfigWithoutFile(t *testing.T) {
	l, cleanup := FromConfig("bogus", false, "", 0, 0, 0, false)
	defer cleanup()
	if !l.Core().Enabled(zapcore.InfoLevel) || l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("unknown level should fall back to info")
	}
}
