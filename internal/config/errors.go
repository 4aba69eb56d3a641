package config

import (
	"errors"
)

// Errors returned by Load and Validate. Match them with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
