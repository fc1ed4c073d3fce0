package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Warn("Test warning message", "key", "value")
	Error("Test error message")
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		debugs bool
		infos  bool
	}{
		{name: "default is warn", cfg: Config{}, debugs: false, infos: false},
		{name: "stderr enables info", cfg: Config{Stderr: true}, debugs: false, infos: true},
		{name: "debug enables everything", cfg: Config{Debug: true}, debugs: true, infos: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			level := Logger.GetLevel()
			if got := level <= log.DebugLevel; got != tt.debugs {
				t.Errorf("debug enabled = %v, want %v (level %v)", got, tt.debugs, level)
			}
			if got := level <= log.InfoLevel; got != tt.infos {
				t.Errorf("info enabled = %v, want %v (level %v)", got, tt.infos, level)
			}
		})
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
