package services

import (
	"fmt"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// RegistrySet dispatches a reference to the registry implementation that
// handles its scheme (§4.8, §9 "dispatch is by reference variant").
type RegistrySet struct {
	registries []ports.Registry
}

// NewRegistrySet constructs a RegistrySet over the given registries,
// tried in order.
func NewRegistrySet(registries ...ports.Registry) *RegistrySet {
	return &RegistrySet{registries: registries}
}

// Dispatch returns the Registry that handles ref's scheme.
func (s *RegistrySet) Dispatch(ref values.ModuleReference) (ports.Registry, error) {
	for _, registry := range s.registries {
		if registry.SchemeMatches(ref) {
			return registry, nil
		}
	}
	return nil, fmt.Errorf("no registry handles reference %s", ref.String())
}
