package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the struct pointed to by cfg.
// Field mappings come from `env` and `envDefault` tags:
//
//	type Config struct {
//	    HTTPPort     int    `env:"SNAP_HTTP_PORT" envDefault:"3000"`
//	    SessionStore string `env:"SESSION_STORE" envDefault:"redis"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
