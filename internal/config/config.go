package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Переменные окружения, переопределяющие RuntimeConfig.
const (
	EnvClustered      = "KOVERT_CLUSTERED"
	EnvClusterName    = "KOVERT_CLUSTER_NAME"
	EnvClusterPass    = "KOVERT_CLUSTER_PASS"
	EnvWorkerPoolSize = "KOVERT_WORKER_POOL_SIZE"
	EnvFileCache      = "KOVERT_FILE_CACHE"
	EnvCacheDir       = "KOVERT_CACHE_DIR"
)

// RuntimeConfig — конфигурация запуска runtime.
type RuntimeConfig struct {
	// Clustered — поднимать кластерный runtime (по умолчанию true).
	Clustered bool `toml:"clustered"`

	// ClusterName — имя кластерной группы.
	ClusterName string `toml:"cluster_name"`

	// ClusterPassphrase — пароль кластерной группы.
	ClusterPassphrase string `toml:"cluster_pass"`

	// WorkerPoolSize — желаемый размер пула воркеров.
	// Перед использованием всегда зажимается в [2×, 128×] ядер.
	WorkerPoolSize int `toml:"worker_pool_size"`

	// FileCaching — настройки файлового кэша.
	FileCaching FileCacheConfig `toml:"file_caching"`
}

// FileCacheConfig — настройки файлового кэша.
//
// CacheBaseDir применяется всегда, когда не пустой,
// независимо от EnableCache.
type FileCacheConfig struct {
	EnableCache  bool   `toml:"enable_cache"`
	CacheBaseDir string `toml:"cache_base_dir"`
}

// DefaultRuntimeConfig возвращает конфигурацию по умолчанию.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Clustered:      true,
		WorkerPoolSize: runtime.NumCPU() * 2,
	}
}

// LoadFile читает TOML-файл поверх значений по умолчанию.
func LoadFile(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv переопределяет поля значениями из переменных окружения.
// Пустые значения игнорируются. Нераспознанные значения не применяются
// и возвращаются как ErrConfiguration; остальные поля применяются.
func ApplyEnv(cfg *RuntimeConfig) error {
	var errs []error

	if v, ok, err := parseBool(EnvClustered); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.Clustered = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvClusterName)); v != "" {
		cfg.ClusterName = v
	}
	if v := os.Getenv(EnvClusterPass); v != "" {
		cfg.ClusterPassphrase = v
	}
	if raw := strings.TrimSpace(os.Getenv(EnvWorkerPoolSize)); raw != "" {
		if v, err := strconv.Atoi(raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, EnvWorkerPoolSize, raw))
		} else {
			cfg.WorkerPoolSize = v
		}
	}
	if v, ok, err := parseBool(EnvFileCache); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.FileCaching.EnableCache = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		cfg.FileCaching.CacheBaseDir = v
	}

	return errors.Join(errs...)
}

func parseBool(env string) (value, ok bool, err error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return false, false, nil
	}
	v, perr := strconv.ParseBool(raw)
	if perr != nil {
		return false, false, fmt.Errorf("%w: %s=%q is not a boolean", ErrConfiguration, env, raw)
	}
	return v, true, nil
}
