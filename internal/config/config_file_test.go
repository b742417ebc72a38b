package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				HTTPAddr:        ":9090",
				LogLevel:        "debug",
				LogFormat:       "json",
				DatabasePath:    "/var/lib/stagehand/places.db",
				ShutdownTimeout: "30s",
				Watch:           &trueVal,
			},
			changed: map[string]bool{},
			initial: DefaultConfig(),
			expected: Config{
				HTTPAddr:        ":9090",
				LogLevel:        "debug",
				LogFormat:       "json",
				DatabasePath:    "/var/lib/stagehand/places.db",
				ShutdownTimeout: 30 * time.Second,
				Watch:           true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				HTTPAddr: ":9090",
				LogLevel: "debug",
			},
			changed: map[string]bool{"http-addr": true},
			initial: Config{HTTPAddr: ":7070", LogLevel: "info"},
			expected: Config{
				HTTPAddr: ":7070", // unchanged because flag was set
				LogLevel: "debug",
			},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "explicit false overrides true",
			fileConfig: FileConfig{Watch: &falseVal},
			changed:    map[string]bool{},
			initial:    Config{Watch: true},
			expected:   Config{Watch: false},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{ShutdownTimeout: "soon"},
			changed:    map[string]bool{},
			initial:    Config{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
http_addr = "127.0.0.1:8081"
log_level = "warn"
shutdown_timeout = "5s"
watch = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.HTTPAddr != "127.0.0.1:8081" {
		t.Errorf("HTTPAddr = %v, want 127.0.0.1:8081", fc.HTTPAddr)
	}
	if fc.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", fc.LogLevel)
	}
	if fc.ShutdownTimeout != "5s" {
		t.Errorf("ShutdownTimeout = %v, want 5s", fc.ShutdownTimeout)
	}
	if fc.LogFormat != "" {
		t.Errorf("LogFormat = %v, want empty", fc.LogFormat)
	}
	if fc.Watch == nil || !*fc.Watch {
		t.Errorf("Watch = %v, want true", fc.Watch)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	if err := os.WriteFile(configPath, []byte("http_addr = \nthis is not valid toml\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".stagehand") {
		t.Errorf("DefaultConfigPath() = %v, should contain .stagehand", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
