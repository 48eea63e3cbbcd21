package entities

import (
	"fmt"

	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// IntegrityError indicates a recomputed digest did not match the digest a
// server or descriptor claimed (§3 invariants, §7).
type IntegrityError struct {
	Expected values.Digest
	Actual   values.Digest
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed: expected %s, got %s", e.Expected.String(), e.Actual.String())
}

// ModuleNotFoundError indicates a 404 on manifest download (§4.6, §7).
type ModuleNotFoundError struct {
	Reference values.ModuleReference
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: %s", e.Reference.String())
}

// NotABicepModuleError indicates the manifest's config descriptor failed
// the media-type/size check in §3/§4.6 step 5.
type NotABicepModuleError struct {
	Reference values.ModuleReference
	Reason    string
}

func (e *NotABicepModuleError) Error() string {
	return fmt.Sprintf("%s is not a bicep module: %s", e.Reference.String(), e.Reason)
}

// InvalidManifestError indicates a manifest document failed structural
// decoding (§4.4, §7).
type InvalidManifestError struct {
	Reason string
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid manifest: %s", e.Reason)
}

// TransportError wraps a non-404 failure from the registry transport
// (§4.5, §7).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("registry transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// LocalIOError wraps a filesystem failure encountered while populating the
// cache (§4.6 step 6, §7).
type LocalIOError struct {
	Path  string
	Cause error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("local io error at %s: %v", e.Path, e.Cause)
}

func (e *LocalIOError) Unwrap() error { return e.Cause }

// FeatureDisabledError indicates an OCI reference was rejected because the
// experimental registry feature flag is off (§6, §7).
type FeatureDisabledError struct {
	Reference values.ModuleReference
}

func (e *FeatureDisabledError) Error() string {
	return fmt.Sprintf("oci module references are disabled: %s", e.Reference.String())
}

// UnhandledError wraps any failure that does not fit another kind (§7);
// the message carries the original description.
type UnhandledError struct {
	Message string
	Cause   error
}

func (e *UnhandledError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UnhandledError) Unwrap() error { return e.Cause }
