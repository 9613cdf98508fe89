package config

import (
	"errors"
	"log"
)

const devJWTSecret = "dev-secret-do-not-use-in-production"

var ErrMissingJWTSecret = errors.New("missing required env JWT_SECRET")

// ResolveJWTSecret returns the configured signing secret. Outside production an
// empty secret falls back to a fixed development value.
func ResolveJWTSecret(appEnv, secret string) ([]byte, error) {
	if secret != "" {
		return []byte(secret), nil
	}
	if appEnv == EnvProduction {
		return nil, ErrMissingJWTSecret
	}
	log.Printf("warning: JWT_SECRET is not set, using development secret")
	return []byte(devJWTSecret), nil
}
