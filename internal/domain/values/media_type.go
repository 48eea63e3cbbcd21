package values

import ocispec "github.com/opencontainers/image-spec/specs-go/v1"

// ManifestMediaType is the media type of the OCI image manifest document
// itself (§6 OCI wire format). Sourced from the image-spec package rather
// than hand-copied so it tracks the spec's own constant.
const ManifestMediaType = ocispec.MediaTypeImageManifest

// ModuleConfigMediaType is the engine-configured media type a manifest's
// config descriptor must carry for the artifact to be accepted as a Bicep
// module (§3 invariants, §4.6 step 5).
const ModuleConfigMediaType = "application/vnd.ms.bicep.module.config.v2+json"

// ModuleLayerMediaType is the media type assigned to the single opaque
// layer blob produced by the publish path (SPEC_FULL "Publish CLI path").
const ModuleLayerMediaType = "application/vnd.ms.bicep.module.artifact.layer.v1+json"

// TitleAnnotation is the descriptor annotation key whose value, when
// present, names the on-disk file a layer is written to (§3 CacheEntry).
const TitleAnnotation = ocispec.AnnotationTitle

// ContentDigestHeader is the HTTP response header the registry is required
// to return on a manifest GET (§6 OCI wire format).
const ContentDigestHeader = "Docker-Content-Digest"
