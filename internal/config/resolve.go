package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolved — полностью разрешённая конфигурация.
type Resolved struct {
	Config         RuntimeConfig
	WorkerPoolSize int
	WorkingDir     string
}

// EffectiveWorkerPoolSize зажимает размер пула в [2*cores, 128*cores].
func EffectiveWorkerPoolSize(configured, cores int) int {
	if cores < 1 {
		cores = 1
	}
	return min(max(configured, cores*2), cores*128)
}

// Resolve разрешает конфигурацию и публикует свойства в props.
//
// Рабочая директория: workingDir > уже опубликованная в props > ".".
// Если директория не существует, возвращается ошибка
// ErrInvalidWorkingDirectory и ничего не публикуется.
func Resolve(cfg RuntimeConfig, workingDir string, props *Context, cores int) (Resolved, error) {
	dir, err := resolveWorkingDir(workingDir, props)
	if err != nil {
		return Resolved{}, err
	}

	props.SetOnce(PropDisableFileCPResolving, "true")
	props.SetOnce(PropDisableFileCaching, strconv.FormatBool(!cfg.FileCaching.EnableCache))
	if base := strings.TrimSpace(cfg.FileCaching.CacheBaseDir); base != "" {
		props.SetOnce(PropCacheDirBase, base)
	}
	props.SetOnce(PropWorkingDir, dir)

	return Resolved{
		Config:         cfg,
		WorkerPoolSize: EffectiveWorkerPoolSize(cfg.WorkerPoolSize, cores),
		WorkingDir:     dir,
	}, nil
}

func resolveWorkingDir(override string, props *Context) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		dir, _ = props.WorkingDir()
	}
	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %s: %w", ErrConfiguration, ErrInvalidWorkingDirectory, dir, err)
	}

	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w: working directory was specified as %s, but does not exist",
				ErrConfiguration, ErrInvalidWorkingDirectory, abs)
		}
		return "", fmt.Errorf("%w: %w: %s: %w", ErrConfiguration, ErrInvalidWorkingDirectory, abs, err)
	}

	return abs, nil
}
