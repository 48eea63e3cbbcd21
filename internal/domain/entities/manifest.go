package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// SchemaVersion is the only manifest schema version this engine accepts
// (§3, invariants).
const SchemaVersion = 2

// Manifest is an OCI image-manifest v1 document restricted to the narrow
// artifact profile this engine supports: one config descriptor plus N
// opaque layer descriptors (§1 Non-goals, §3).
type Manifest struct {
	SchemaVersion int
	Config        Descriptor
	Layers        []Descriptor
}

// NewManifest builds a manifest with the engine's fixed schema version.
func NewManifest(config Descriptor, layers []Descriptor) Manifest {
	return Manifest{SchemaVersion: SchemaVersion, Config: config, Layers: layers}
}

// wireDescriptor is the canonical on-wire encoding of a Descriptor: field
// order media_type, digest, size, annotations, with annotations omitted
// when empty (§4.4).
type wireDescriptor struct {
	MediaType   string            `json:"media_type"`
	Digest      string            `json:"digest"`
	Size        int64             `json:"size"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// wireManifest is the canonical on-wire encoding of a Manifest: field order
// schema_version, config, layers (§4.4).
type wireManifest struct {
	SchemaVersion int              `json:"schema_version"`
	Config        wireDescriptor   `json:"config"`
	Layers        []wireDescriptor `json:"layers"`
}

func toWireDescriptor(d Descriptor) wireDescriptor {
	return wireDescriptor{
		MediaType:   d.MediaType,
		Digest:      d.Digest.String(),
		Size:        d.Size,
		Annotations: d.Annotations,
	}
}

func fromWireDescriptor(w wireDescriptor) (Descriptor, error) {
	if w.MediaType == "" {
		return Descriptor{}, &InvalidManifestError{Reason: "descriptor missing media_type"}
	}
	if w.Digest == "" {
		return Descriptor{}, &InvalidManifestError{Reason: "descriptor missing digest"}
	}
	digest, err := values.ParseDigest(w.Digest)
	if err != nil {
		return Descriptor{}, &InvalidManifestError{Reason: fmt.Sprintf("descriptor digest: %v", err)}
	}
	return Descriptor{
		MediaType:   w.MediaType,
		Digest:      digest,
		Size:        w.Size,
		Annotations: w.Annotations,
	}, nil
}

// Encode writes the canonical JSON encoding of m to w (§4.4).
func Encode(w io.Writer, m Manifest) error {
	wire := wireManifest{
		SchemaVersion: m.SchemaVersion,
		Config:        toWireDescriptor(m.Config),
		Layers:        make([]wireDescriptor, len(m.Layers)),
	}
	for i, l := range m.Layers {
		wire.Layers[i] = toWireDescriptor(l)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// Marshal is a byte-slice convenience wrapper over Encode.
func Marshal(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a manifest document strictly: unknown fields are
// tolerated, but a missing schema_version, config, or malformed descriptor
// fails with InvalidManifestError (§4.4).
func Decode(r io.Reader) (Manifest, error) {
	var wire wireManifest
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return Manifest{}, &InvalidManifestError{Reason: err.Error()}
	}
	if wire.SchemaVersion == 0 {
		return Manifest{}, &InvalidManifestError{Reason: "missing schema_version"}
	}
	if wire.SchemaVersion != SchemaVersion {
		return Manifest{}, &InvalidManifestError{Reason: fmt.Sprintf("unsupported schema_version %d", wire.SchemaVersion)}
	}

	config, err := fromWireDescriptor(wire.Config)
	if err != nil {
		return Manifest{}, err
	}

	layers := make([]Descriptor, len(wire.Layers))
	for i, wd := range wire.Layers {
		d, err := fromWireDescriptor(wd)
		if err != nil {
			return Manifest{}, err
		}
		layers[i] = d
	}

	return Manifest{SchemaVersion: wire.SchemaVersion, Config: config, Layers: layers}, nil
}

// Unmarshal is a byte-slice convenience wrapper over Decode.
func Unmarshal(data []byte) (Manifest, error) {
	return Decode(bytes.NewReader(data))
}

// Equals compares two manifests structurally, order-sensitive on layers
// (§8 round-trip property).
func (m Manifest) Equals(other Manifest) bool {
	if m.SchemaVersion != other.SchemaVersion || !m.Config.EqualsSet(other.Config) {
		return false
	}
	if len(m.Layers) != len(other.Layers) {
		return false
	}
	for i := range m.Layers {
		if !m.Layers[i].EqualsSet(other.Layers[i]) {
			return false
		}
	}
	return true
}
