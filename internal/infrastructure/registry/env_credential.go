package registry

import (
	"context"
	"os"

	"github.com/bicep-tools/modrestore/internal/application/ports"
)

// EnvTokenCredential reads a bearer token from BICEP_REGISTRY_TOKEN.
// Acquisition and refresh live outside this engine (§6); this is the
// simplest credential source that satisfies the port.
type EnvTokenCredential struct {
	envVar string
}

var _ ports.TokenCredential = EnvTokenCredential{}

// NewEnvTokenCredential constructs a credential reading envVar, or
// BICEP_REGISTRY_TOKEN if envVar is empty.
func NewEnvTokenCredential(envVar string) EnvTokenCredential {
	if envVar == "" {
		envVar = "BICEP_REGISTRY_TOKEN"
	}
	return EnvTokenCredential{envVar: envVar}
}

// Token returns the current value of the configured environment
// variable, which may be empty for anonymous pulls.
func (c EnvTokenCredential) Token(ctx context.Context) (string, error) {
	return os.Getenv(c.envVar), nil
}
