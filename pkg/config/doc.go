// Package config loads application configuration from environment variables,
// .env files and YAML files.
//
// Environment parsing is delegated to github.com/caarlos0/env/v11 and .env
// files are read with github.com/joho/godotenv. Parsed values are cached per
// Go type, so repeated Load calls for the same struct are cheap and return
// identical values.
//
// # Usage
//
//	type UploadConfig struct {
//		Provider string `env:"UPLOAD_PROVIDER" envDefault:"local" yaml:"provider"`
//	}
//
//	var cfg UploadConfig
//	if err := config.Load(&cfg); err != nil { ... }
//
//	// Explicit .env files:
//	err := config.LoadEnv(&cfg, ".env.local", ".env")
//
//	// YAML files, decoded with gopkg.in/yaml.v3:
//	err := config.LoadYAML("uploads.yaml", &cfg)
//
// MustLoad and MustLoadEnv panic on failure. ResetCache and ForceReload
// exist for tests that change the environment between cases.
package config
