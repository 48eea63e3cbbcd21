// Package values contains the engine's domain value objects: immutable,
// validated types with no identity beyond their contents.
package values

import (
	"fmt"
	"net"
	"strings"
)

// ReferenceScheme distinguishes the two ways a module can be referenced.
type ReferenceScheme int

const (
	// SchemeLocal identifies a path relative to the referring file.
	SchemeLocal ReferenceScheme = iota
	// SchemeOci identifies an OCI artifact reference.
	SchemeOci
)

// ModuleReference is either a Local path or an Oci artifact coordinate.
// The zero value is not valid; construct with ParseModuleReference or
// NewOciReference/NewLocalReference.
type ModuleReference struct {
	scheme     ReferenceScheme
	path       string // Local only
	registry   string // Oci only
	repository string // Oci only
	tag        string // Oci only
}

// NewLocalReference builds a Local reference from a raw path string.
func NewLocalReference(path string) ModuleReference {
	return ModuleReference{scheme: SchemeLocal, path: path}
}

// NewOciReference builds an Oci reference from its three coordinates.
func NewOciReference(registry, repository, tag string) ModuleReference {
	return ModuleReference{
		scheme:     SchemeOci,
		registry:   registry,
		repository: repository,
		tag:        tag,
	}
}

// ParseModuleReference parses a user-supplied reference string per §4.1:
//   - "oci:<host>/<repo>[/<repo>...]:<tag>" -> Oci
//   - a string beginning with "./", "../", or lacking a scheme -> Local
//   - any other scheme -> UnsupportedTarget
func ParseModuleReference(raw string) (ModuleReference, error) {
	if raw == "" {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "empty reference"}
	}

	scheme, rest, hasScheme := splitScheme(raw)
	if !hasScheme {
		if strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") || !strings.Contains(raw, ":") {
			return NewLocalReference(raw), nil
		}
	}

	switch scheme {
	case "oci":
		if rest == "" {
			return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "empty oci target"}
		}
		return parseOciTarget(raw, rest)
	case "":
		return NewLocalReference(raw), nil
	default:
		if rest == "" {
			return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "empty target"}
		}
		return ModuleReference{}, &UnsupportedTargetError{Raw: raw, Scheme: scheme}
	}
}

// splitScheme returns the portion of raw before the first ":" that looks
// like a scheme prefix (oci:...), and whether one was found. Windows-style
// drive letters and bare local paths are not mistaken for schemes because
// a scheme must be longer than one character and must not contain "/",
// "\" or "."; an empty remainder is left for the caller to reject.
func splitScheme(raw string) (scheme, rest string, ok bool) {
	idx := strings.Index(raw, ":")
	if idx < 0 {
		return "", raw, false
	}
	candidate := raw[:idx]
	if len(candidate) < 2 || strings.ContainsAny(candidate, "/\\.") {
		return "", raw, false
	}
	return candidate, raw[idx+1:], true
}

func parseOciTarget(raw, rest string) (ModuleReference, error) {
	lastColon := strings.LastIndex(rest, ":")
	if lastColon < 0 {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "missing tag"}
	}

	hostAndRepo := rest[:lastColon]
	tag := rest[lastColon+1:]
	if tag == "" {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "empty tag"}
	}

	slash := strings.Index(hostAndRepo, "/")
	if slash < 0 {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: "missing repository"}
	}

	host := hostAndRepo[:slash]
	repo := hostAndRepo[slash+1:]
	if err := validateHost(host); err != nil {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: err.Error()}
	}
	if err := validateRepository(repo); err != nil {
		return ModuleReference{}, &MalformedReferenceError{Raw: raw, Reason: err.Error()}
	}

	return NewOciReference(host, repo, tag), nil
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("empty registry host")
	}
	// A bare hostname is accepted; an optional ":port" suffix is tolerated
	// since registries frequently run on non-standard ports.
	hostOnly := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostOnly = h
	}
	if strings.ContainsAny(hostOnly, " \t\n") {
		return fmt.Errorf("invalid registry host %q", host)
	}
	return nil
}

func validateRepository(repo string) error {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return fmt.Errorf("empty repository")
	}
	for _, seg := range strings.Split(repo, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid repository segment %q in %q", seg, repo)
		}
	}
	return nil
}

// IsLocal reports whether this reference names a local-path module.
func (r ModuleReference) IsLocal() bool { return r.scheme == SchemeLocal }

// IsOci reports whether this reference names an OCI artifact.
func (r ModuleReference) IsOci() bool { return r.scheme == SchemeOci }

// Path returns the local path. Only meaningful when IsLocal is true.
func (r ModuleReference) Path() string { return r.path }

// Registry returns the OCI registry host. Only meaningful when IsOci is true.
func (r ModuleReference) Registry() string { return r.registry }

// Repository returns the OCI repository path. Only meaningful when IsOci is true.
func (r ModuleReference) Repository() string { return r.repository }

// Tag returns the OCI tag. Only meaningful when IsOci is true.
func (r ModuleReference) Tag() string { return r.tag }

// RepositorySegments splits Repository on "/".
func (r ModuleReference) RepositorySegments() []string {
	if r.repository == "" {
		return nil
	}
	return strings.Split(r.repository, "/")
}

// CacheSegments returns the path segments under the cache root that locate
// this reference's on-disk entry, per §3: registry, repo segments, tag.
func (r ModuleReference) CacheSegments() []string {
	if !r.IsOci() {
		return nil
	}
	segments := make([]string, 0, 2+len(r.RepositorySegments()))
	segments = append(segments, r.registry)
	segments = append(segments, r.RepositorySegments()...)
	segments = append(segments, r.tag)
	return segments
}

// Equals implements equality per §3: case-sensitive on registry/repository/tag
// for Oci references, exact path match for Local references.
func (r ModuleReference) Equals(other ModuleReference) bool {
	if r.scheme != other.scheme {
		return false
	}
	if r.scheme == SchemeLocal {
		return r.path == other.path
	}
	return r.registry == other.registry &&
		r.repository == other.repository &&
		r.tag == other.tag
}

// String renders a canonical textual form, usable as a map key and safe to
// log.
func (r ModuleReference) String() string {
	if r.IsLocal() {
		return r.path
	}
	return fmt.Sprintf("oci:%s/%s:%s", r.registry, r.repository, r.tag)
}
