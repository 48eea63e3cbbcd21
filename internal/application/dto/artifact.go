// Package dto holds data-transfer objects that carry I/O-bearing values
// across the port boundary between the application and infrastructure
// layers. Domain entities stay I/O-free; these carry the streams.
package dto

import "io"

// ManifestDownload is the result of a BlobClient.DownloadManifest call
// (§4.5): the raw "Docker-Content-Digest" header value and the manifest
// document body.
type ManifestDownload struct {
	DigestHeader string
	Body         io.ReadCloser
}

// LayerSource pairs a layer's content with the annotations its descriptor
// should carry, used on the push path (§4.7).
type LayerSource struct {
	Annotations map[string]string
	Content     io.ReadSeeker
}

// PushArtifact is everything the push path needs to assemble and upload a
// module artifact (§4.7).
type PushArtifact struct {
	Config io.ReadSeeker
	Layers []LayerSource
	Tag    string
}
