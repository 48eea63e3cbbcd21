// Package entities holds the engine's richer domain objects: descriptors,
// manifests, and the error kinds raised while moving module artifacts
// between registries and the local cache.
package entities

import (
	"io"

	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// Descriptor is a pointer-with-integrity over a blob: media type, digest,
// size, and an annotation map compared as a set (§3). The map keeps no
// insertion order; encoding writes its keys in sorted order.
type Descriptor struct {
	MediaType   string
	Digest      values.Digest
	Size        int64
	Annotations map[string]string
}

// NewDescriptor computes a Descriptor for content by digesting it (§4.3).
// content is rewound before and after, per the stream-ownership contract.
func NewDescriptor(mediaType string, content io.Reader, size int64, annotations map[string]string) (Descriptor, error) {
	digest, err := values.ComputeDigest(content)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		MediaType:   mediaType,
		Digest:      digest,
		Size:        size,
		Annotations: annotations,
	}, nil
}

// Title returns the "org.opencontainers.image.title" annotation, or "" if
// absent.
func (d Descriptor) Title() string {
	if d.Annotations == nil {
		return ""
	}
	return d.Annotations[values.TitleAnnotation]
}

// FileName computes the cache file name for a layer per §3 CacheEntry:
// the title annotation if present, otherwise the hex portion of the digest.
func (d Descriptor) FileName() string {
	if title := d.Title(); title != "" {
		return title
	}
	return d.Digest.Hex()
}

// EqualsSet compares two descriptors structurally, treating Annotations as
// a set (order-independent) per §3.
func (d Descriptor) EqualsSet(other Descriptor) bool {
	if d.MediaType != other.MediaType || !d.Digest.Equals(other.Digest) || d.Size != other.Size {
		return false
	}
	if len(d.Annotations) != len(other.Annotations) {
		return false
	}
	for k, v := range d.Annotations {
		if other.Annotations[k] != v {
			return false
		}
	}
	return true
}
