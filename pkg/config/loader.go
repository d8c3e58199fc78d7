package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by configuration structs that carry invariants
// the env tags cannot express. Load runs it after parsing.
type Validator interface {
	Validate() error
}

// Load parses environment variables into cfg using its `env` tags and,
// when cfg implements Validator, checks the parsed values.
//
// Example:
//
//	type Config struct {
//	    Port    int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
//	    CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	return nil
}
