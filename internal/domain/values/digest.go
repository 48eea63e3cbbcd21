package values

import (
	"fmt"
	"io"
	"strings"

	godigest "github.com/opencontainers/go-digest"
)

// Algorithm is the digest algorithm identifier. Per §4.2 the engine only
// ever produces and verifies "sha256".
const Algorithm = "sha256"

// Digest is a validated "<algorithm>:<hex>" content digest, always sha256
// in this engine (§3, §4.2).
type Digest struct {
	value godigest.Digest
}

// ParseDigest validates and wraps a "<algorithm>:<hex>" string.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Digest{}, fmt.Errorf("digest cannot be empty")
	}
	d := godigest.Digest(s)
	if err := d.Validate(); err != nil {
		return Digest{}, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if d.Algorithm().String() != Algorithm {
		return Digest{}, fmt.Errorf("unsupported digest algorithm %q", d.Algorithm())
	}
	return Digest{value: d}, nil
}

// ComputeDigest rewinds src (if it is an io.Seeker), reads it fully to
// compute its sha256 digest, then rewinds it again so the caller can reuse
// the stream, per §4.2 and the stream-ownership contract in §4.7/§9.
func ComputeDigest(src io.Reader) (Digest, error) {
	if err := rewind(src); err != nil {
		return Digest{}, err
	}
	d, err := godigest.Canonical.FromReader(src)
	if err != nil {
		return Digest{}, fmt.Errorf("computing digest: %w", err)
	}
	if err := rewind(src); err != nil {
		return Digest{}, err
	}
	return Digest{value: d}, nil
}

func rewind(src io.Reader) error {
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewinding stream: %w", err)
		}
	}
	return nil
}

// IsZero reports whether this is the unset zero value.
func (d Digest) IsZero() bool { return d.value == "" }

// String returns the full "<algorithm>:<hex>" form.
func (d Digest) String() string { return d.value.String() }

// Hex returns the hex suffix, per §4.2's trim operation.
func (d Digest) Hex() string {
	if d.IsZero() {
		return ""
	}
	return d.value.Encoded()
}

// Equals compares two digests by their canonical string form.
func (d Digest) Equals(other Digest) bool { return d.value == other.value }

// MarshalJSON implements json.Marshaler, encoding as a plain string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Digest) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("invalid digest JSON")
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = Digest{}
		return nil
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
