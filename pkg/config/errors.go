package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrLoadingEnvFile is returned when an explicitly requested .env file cannot be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")

	// ErrReadingFile is returned when a YAML config file cannot be read.
	ErrReadingFile = errors.New("failed to read config file")

	// ErrDecodingFile is returned when a YAML config file is malformed.
	ErrDecodingFile = errors.New("failed to decode config file")

	// ErrConfigNotLoaded is returned when a cached config is missing after a load attempt.
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
