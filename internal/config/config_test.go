package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// --- EffectiveWorkerPoolSize Tests ---

func TestEffectiveWorkerPoolSize_AlwaysInRange(t *testing.T) {
	for _, cores := range []int{1, 2, 4, 16, 64} {
		lo, hi := cores*2, cores*128
		for _, configured := range []int{-100, 0, 1, lo - 1, lo, lo + 1, 50, hi - 1, hi, hi + 1, 1 << 30} {
			got := EffectiveWorkerPoolSize(configured, cores)
			if got < lo || got > hi {
				t.Errorf("cores=%d configured=%d: got %d, want within [%d, %d]", cores, configured, got, lo, hi)
			}
		}
	}
}

func TestEffectiveWorkerPoolSize_KeepsValidValue(t *testing.T) {
	if got := EffectiveWorkerPoolSize(40, 4); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}
	if got := EffectiveWorkerPoolSize(1, 4); got != 8 {
		t.Errorf("expected lower bound 8, got %d", got)
	}
	if got := EffectiveWorkerPoolSize(10000, 4); got != 512 {
		t.Errorf("expected upper bound 512, got %d", got)
	}
}

func TestEffectiveWorkerPoolSize_NonPositiveCores(t *testing.T) {
	if got := EffectiveWorkerPoolSize(0, 0); got != 2 {
		t.Errorf("expected 2 for zero cores, got %d", got)
	}
}

// --- Resolve Tests ---

func TestResolve_ExplicitWorkingDir(t *testing.T) {
	dir := t.TempDir()
	props := NewContext()

	res, err := Resolve(DefaultRuntimeConfig(), dir, props, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.WorkingDir != dir {
		t.Errorf("expected working dir %s, got %s", dir, res.WorkingDir)
	}
	if got, _ := props.WorkingDir(); got != dir {
		t.Errorf("expected published working dir %s, got %s", dir, got)
	}
	if res.WorkerPoolSize < 8 || res.WorkerPoolSize > 512 {
		t.Errorf("worker pool size out of range: %d", res.WorkerPoolSize)
	}
}

func TestResolve_MissingWorkingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	props := NewContext()

	_, err := Resolve(DefaultRuntimeConfig(), missing, props, 4)
	if err == nil {
		t.Fatal("expected error for missing working dir")
	}
	if !errors.Is(err, ErrInvalidWorkingDirectory) {
		t.Errorf("expected ErrInvalidWorkingDirectory, got %v", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if len(props.Snapshot()) != 0 {
		t.Errorf("nothing should be published on failure, got %v", props.Snapshot())
	}
}

func TestResolve_UsesPublishedWorkingDir(t *testing.T) {
	dir := t.TempDir()
	props := NewContext()
	props.SetOnce(PropWorkingDir, dir)

	res, err := Resolve(DefaultRuntimeConfig(), "", props, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WorkingDir != dir {
		t.Errorf("expected %s, got %s", dir, res.WorkingDir)
	}
}

func TestResolve_DefaultsToCurrentDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(DefaultRuntimeConfig(), "", NewContext(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WorkingDir != wd {
		t.Errorf("expected %s, got %s", wd, res.WorkingDir)
	}
}

func TestResolve_WorkingDirPublishedOnce(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	props := NewContext()

	if _, err := Resolve(DefaultRuntimeConfig(), first, props, 2); err != nil {
		t.Fatal(err)
	}
	res, err := Resolve(DefaultRuntimeConfig(), second, props, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Явный override используется для текущего вызова...
	if res.WorkingDir != second {
		t.Errorf("expected resolved %s, got %s", second, res.WorkingDir)
	}
	// ...но опубликованное значение остаётся от первого.
	if got, _ := props.WorkingDir(); got != first {
		t.Errorf("expected published %s, got %s", first, got)
	}
}

func TestResolve_CacheProperties(t *testing.T) {
	tests := []struct {
		name        string
		cache       FileCacheConfig
		wantDisable string
		wantBase    string
		hasBase     bool
	}{
		{"disabled without base", FileCacheConfig{EnableCache: false}, "true", "", false},
		{"enabled with base", FileCacheConfig{EnableCache: true, CacheBaseDir: "/tmp/kc"}, "false", "/tmp/kc", true},
		{"disabled with base", FileCacheConfig{EnableCache: false, CacheBaseDir: "/tmp/kc"}, "true", "/tmp/kc", true},
		{"blank base ignored", FileCacheConfig{EnableCache: true, CacheBaseDir: "   "}, "false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRuntimeConfig()
			cfg.FileCaching = tt.cache
			props := NewContext()

			if _, err := Resolve(cfg, t.TempDir(), props, 2); err != nil {
				t.Fatal(err)
			}

			if v, _ := props.Get(PropDisableFileCPResolving); v != "true" {
				t.Errorf("classpath resolving should always be disabled, got %q", v)
			}
			if v, _ := props.Get(PropDisableFileCaching); v != tt.wantDisable {
				t.Errorf("expected disableFileCaching=%s, got %s", tt.wantDisable, v)
			}
			base, ok := props.CacheDirBase()
			if ok != tt.hasBase || base != tt.wantBase {
				t.Errorf("expected base (%q, %v), got (%q, %v)", tt.wantBase, tt.hasBase, base, ok)
			}
		})
	}
}

// --- Context Tests ---

func TestContext_SetOnce(t *testing.T) {
	c := NewContext()

	if !c.SetOnce("k", "v1") {
		t.Error("first write should succeed")
	}
	if c.SetOnce("k", "v2") {
		t.Error("second write should be ignored")
	}
	if v, _ := c.Get("k"); v != "v1" {
		t.Errorf("expected v1, got %s", v)
	}
}

func TestProcess_IsShared(t *testing.T) {
	if Process() != Process() {
		t.Error("Process should return the same instance")
	}
}

// --- Loading Tests ---

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if !cfg.Clustered {
		t.Error("clustered should default to true")
	}
	if cfg.WorkerPoolSize != runtime.NumCPU()*2 {
		t.Errorf("expected pool size %d, got %d", runtime.NumCPU()*2, cfg.WorkerPoolSize)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kovert.toml")
	data := `
clustered = false
cluster_name = "edge"
cluster_pass = "secret"
worker_pool_size = 64

[file_caching]
enable_cache = true
cache_base_dir = "/var/cache/kovert"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Clustered {
		t.Error("expected clustered=false")
	}
	if cfg.ClusterName != "edge" || cfg.ClusterPassphrase != "secret" {
		t.Errorf("unexpected cluster identity: %q/%q", cfg.ClusterName, cfg.ClusterPassphrase)
	}
	if cfg.WorkerPoolSize != 64 {
		t.Errorf("expected 64, got %d", cfg.WorkerPoolSize)
	}
	if !cfg.FileCaching.EnableCache || cfg.FileCaching.CacheBaseDir != "/var/cache/kovert" {
		t.Errorf("unexpected file caching: %+v", cfg.FileCaching)
	}
}

func TestLoadFile_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kovert.toml")
	if err := os.WriteFile(path, []byte(`cluster_name = "edge"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Clustered {
		t.Error("clustered default should survive partial file")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`clustered = [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvClustered, "false")
	t.Setenv(EnvClusterName, "env-group")
	t.Setenv(EnvClusterPass, "env-pass")
	t.Setenv(EnvWorkerPoolSize, "12")
	t.Setenv(EnvFileCache, "true")
	t.Setenv(EnvCacheDir, "/cache")

	cfg := DefaultRuntimeConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	want := RuntimeConfig{
		Clustered:         false,
		ClusterName:       "env-group",
		ClusterPassphrase: "env-pass",
		WorkerPoolSize:    12,
		FileCaching:       FileCacheConfig{EnableCache: true, CacheBaseDir: "/cache"},
	}
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
}

func TestApplyEnv_RejectsMalformed(t *testing.T) {
	t.Setenv(EnvClustered, "maybe")
	t.Setenv(EnvWorkerPoolSize, "lots")
	t.Setenv(EnvClusterName, "env-group")

	cfg := DefaultRuntimeConfig()
	before := cfg
	err := ApplyEnv(&cfg)

	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	for _, name := range []string{EnvClustered, EnvWorkerPoolSize} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if cfg.Clustered != before.Clustered || cfg.WorkerPoolSize != before.WorkerPoolSize {
		t.Errorf("malformed values must not be applied, got %+v", cfg)
	}
	if cfg.ClusterName != "env-group" {
		t.Errorf("valid values should still apply, got %q", cfg.ClusterName)
	}
}
