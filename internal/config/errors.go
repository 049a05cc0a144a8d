package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrConfiguration — общая ошибка конфигурации, фатальная для запуска.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidWorkingDirectory — рабочая директория не существует.
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")
)
