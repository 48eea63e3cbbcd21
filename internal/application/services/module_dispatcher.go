package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrentPulls bounds how many distinct references one Restore call
// pulls at once (SPEC_FULL "Artifact Manager").
const MaxConcurrentPulls = 4

// ModuleDispatcher is the batch-restore entrypoint (§4.9): it filters
// malformed references, partitions the rest by registry, skips anything
// already cached, and pulls what remains. Per-reference failures are
// recorded rather than raised; Restore reports only whether any work
// happened.
type ModuleDispatcher struct {
	registrySet     *RegistrySet
	registryEnabled bool
	logger          *slog.Logger

	mu          sync.Mutex
	errorsByRef map[string]error
}

// NewModuleDispatcher constructs a ModuleDispatcher. registryEnabled
// mirrors the BICEP_REGISTRY_ENABLED_EXPERIMENTAL flag (§6).
func NewModuleDispatcher(registrySet *RegistrySet, registryEnabled bool, logger *slog.Logger) *ModuleDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModuleDispatcher{
		registrySet:     registrySet,
		registryEnabled: registryEnabled,
		logger:          logger,
		errorsByRef:     make(map[string]error),
	}
}

// ValidReferences parses raw reference strings, keeping only those that
// parse successfully (§4.9). Parse failures are recorded and retrievable
// via TryGetError, keyed by the raw string.
func (d *ModuleDispatcher) ValidReferences(raw []string) []values.ModuleReference {
	valid := make([]values.ModuleReference, 0, len(raw))
	for _, r := range raw {
		ref, err := values.ParseModuleReference(r)
		if err != nil {
			d.recordError(r, err)
			continue
		}
		valid = append(valid, ref)
	}
	return valid
}

// Restore partitions references by registry, skips anything already
// cached, and pulls the rest (§4.9). It returns true iff at least one
// reference required work, regardless of whether that work succeeded;
// per-reference failures are recorded and retrievable via TryGetError.
func (d *ModuleDispatcher) Restore(ctx context.Context, refs []values.ModuleReference) (bool, error) {
	missing, err := d.filterMissing(ctx, refs)
	if err != nil {
		return false, err
	}
	if len(missing) == 0 {
		return false, nil
	}

	group, gCtx := errgroup.WithContext(ctx)
	group.SetLimit(MaxConcurrentPulls)

	for _, item := range missing {
		item := item
		group.Go(func() error {
			if err := item.registry.Restore(gCtx, item.ref); err != nil {
				d.recordError(item.ref.String(), err)
			} else {
				d.clearError(item.ref.String())
			}
			return nil // per-reference failures never abort the batch
		})
	}
	_ = group.Wait()

	return true, nil
}

type dispatchedRef struct {
	ref      values.ModuleReference
	registry interface {
		Restore(context.Context, values.ModuleReference) error
	}
}

func (d *ModuleDispatcher) filterMissing(ctx context.Context, refs []values.ModuleReference) ([]dispatchedRef, error) {
	missing := make([]dispatchedRef, 0, len(refs))

	for _, ref := range refs {
		if ref.IsOci() && !d.registryEnabled {
			d.recordError(ref.String(), &entities.FeatureDisabledError{Reference: ref})
			continue
		}

		registry, err := d.registrySet.Dispatch(ref)
		if err != nil {
			d.recordError(ref.String(), err)
			continue
		}

		cached, err := registry.InCache(ctx, ref)
		if err != nil {
			d.recordError(ref.String(), err)
			continue
		}
		if cached {
			d.clearError(ref.String())
			continue
		}

		missing = append(missing, dispatchedRef{ref: ref, registry: registry})
	}

	return missing, nil
}

// TryGetError returns the most recently recorded error for a reference
// string, if any (§6, §7 propagation policy).
func (d *ModuleDispatcher) TryGetError(ref string) (error, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err, ok := d.errorsByRef[ref]
	return err, ok
}

// TryGetLocalPath resolves ref to an absolute filesystem path via its
// registry, without triggering a restore.
func (d *ModuleDispatcher) TryGetLocalPath(ctx context.Context, ref values.ModuleReference) (string, error) {
	registry, err := d.registrySet.Dispatch(ref)
	if err != nil {
		return "", err
	}
	return registry.LocalPath(ctx, ref)
}

func (d *ModuleDispatcher) recordError(ref string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorsByRef[ref] = err
	d.logger.Debug("restore failed for reference", "reference", ref, "error", err)
}

func (d *ModuleDispatcher) clearError(ref string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.errorsByRef, ref)
}
