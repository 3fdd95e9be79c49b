package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	MaxIterations int           `split_words:"true" default:"15"`
	HistoryLimit  int           `split_words:"true" default:"10"`
	Timeout       time.Duration `split_words:"true" default:"30s"`
}

func TestNewDefaultsAndOverrides(t *testing.T) {
	t.Setenv("SAMPLE_HISTORY_LIMIT", "25")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.MaxIterations != 15 || conf.HistoryLimit != 25 || conf.Timeout != 30*time.Second {
		t.Fatalf("unexpected config: %+v", conf)
	}
}

func TestExportEnvironmentKeepsProcessValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("EXPORT_TEST_A=from_file\nEXPORT_TEST_B=from_file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("EXPORT_TEST_A", "from_process")
	t.Cleanup(func() { _ = os.Unsetenv("EXPORT_TEST_B") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("EXPORT_TEST_A"); got != "from_process" {
		t.Fatalf("process value overwritten: %q", got)
	}
	if got := os.Getenv("EXPORT_TEST_B"); got != "from_file" {
		t.Fatalf("file value not exported: %q", got)
	}
}

func TestOneOf(t *testing.T) {
	t.Parallel()

	if err := OneOf("CATALOG_DRIVER", "Postgres", "memory", "postgres"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := OneOf("CATALOG_DRIVER", "mysql", "memory", "postgres"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
