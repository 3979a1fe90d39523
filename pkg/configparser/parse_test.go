package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Store struct {
		Host string `env:"CP_TEST_STORE_HOST" default:"localhost"`
		Port int    `env:"CP_TEST_STORE_PORT" default:"8086"`
	}
	Timeout time.Duration `env:"CP_TEST_TIMEOUT" default:"5s"`
	Debug   bool          `env:"CP_TEST_DEBUG"`
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if cfg.Store.Host != "localhost" || cfg.Store.Port != 8086 {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Debug {
		t.Fatalf("Debug must stay false without env or default")
	}
}

func TestParseEnv_EnvOverrides(t *testing.T) {
	t.Setenv("CP_TEST_STORE_HOST", "influx.local")
	t.Setenv("CP_TEST_DEBUG", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if cfg.Store.Host != "influx.local" {
		t.Fatalf("Host = %s", cfg.Store.Host)
	}
	if !cfg.Debug {
		t.Fatalf("Debug must be true")
	}
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("CP_TEST_STORE_PORT", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatalf("expected error for non numeric port")
	}
}

func TestParseEnv_RejectsNonPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); err != ErrNotStructPointer {
		t.Fatalf("err = %v, want ErrNotStructPointer", err)
	}
}

func TestLoadAndParseYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "cp_test:\n  store:\n    host: yaml-host\n  timeout: ${CP_TEST_UNSET_VAR:-7s}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CP_TEST_STORE_HOST")
		os.Unsetenv("CP_TEST_TIMEOUT")
	})

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatalf("LoadAndParseYaml: %v", err)
	}
	if cfg.Store.Host != "yaml-host" {
		t.Fatalf("Host = %s, want yaml-host", cfg.Store.Host)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("Timeout = %v, want 7s", cfg.Timeout)
	}
}

func TestLoadAndParseYaml_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadAndParseYaml(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("missing config file must fall back to env, got %v", err)
	}
}
