package config

import (
	"testing"
)

func TestGetDefaultOptions(t *testing.T) {
	opts := GetDefaultOptions()

	if opts.Port != 8080 {
		t.Errorf("port incorrect: %d", opts.Port)
	}
	if opts.PageSize != 10 {
		t.Errorf("page_size incorrect: %d", opts.PageSize)
	}
	if opts.WatchBatchSize != 30 {
		t.Errorf("watch_batch_size incorrect: %d", opts.WatchBatchSize)
	}
	if opts.CoverHost != "local" {
		t.Errorf("cover_host incorrect: %s", opts.CoverHost)
	}
	if opts.WorkerPoolSize != 4 {
		t.Errorf("worker_pool_size incorrect: %d", opts.WorkerPoolSize)
	}
}

func TestLoadConfigFile(t *testing.T) {
	GetDefaultOptions()
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	t.Logf(`Config
		Host: %s
		Port: %d
		LogLevel: %s
		LogFile: %s
		PageSize: %d
		`, opts.Host, opts.Port, opts.LogLevel, opts.LogFile, opts.PageSize)
	if opts.Host != "127.0.0.1" {
		t.Errorf("host incorrect")
	}
	if opts.Port != 2333 {
		t.Errorf("port incorrect")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("log_level incorrect")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("log_file incorrect")
	}
	if opts.PageSize != 25 {
		t.Errorf("page_size incorrect")
	}
	// Unset keys keep their defaults.
	if opts.WatchBatchSize != 30 {
		t.Errorf("watch_batch_size incorrect")
	}
}
