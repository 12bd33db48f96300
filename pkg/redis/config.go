package redis

import "time"

// Config describes how to reach the index server.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" yaml:"url"`                           // Format: "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"` // Number of PING attempts before giving up
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s" yaml:"retry_interval"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s" yaml:"connect_timeout"`
}
