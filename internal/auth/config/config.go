package config

import "time"

type Config struct {
	// Tokens are not required when Secret is empty.
	Secret   string
	TokenTTL time.Duration
}
