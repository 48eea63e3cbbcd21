package values

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDigest_RewindsStream(t *testing.T) {
	content := bytes.NewReader([]byte("hello module"))

	d, err := ComputeDigest(content)
	require.NoError(t, err)
	assert.Equal(t, "sha256", d.value.Algorithm().String())

	// The stream must be usable again after digesting.
	b, err := content.Seek(0, 1)
	require.NoError(t, err)
	assert.Zero(t, b)
}

func TestComputeDigest_Deterministic(t *testing.T) {
	d1, err := ComputeDigest(bytes.NewReader([]byte("same bytes")))
	require.NoError(t, err)
	d2, err := ComputeDigest(bytes.NewReader([]byte("same bytes")))
	require.NoError(t, err)
	assert.True(t, d1.Equals(d2))

	d3, err := ComputeDigest(bytes.NewReader([]byte("different bytes")))
	require.NoError(t, err)
	assert.False(t, d1.Equals(d3))
}

func TestParseDigest(t *testing.T) {
	d, err := ParseDigest("sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	require.NoError(t, err)
	assert.Len(t, d.Hex(), 64)

	_, err = ParseDigest("md5:abcd")
	assert.Error(t, err)

	_, err = ParseDigest("not-a-digest")
	assert.Error(t, err)
}

func TestDigest_JSONRoundTrip(t *testing.T) {
	d, err := ComputeDigest(bytes.NewReader([]byte("roundtrip")))
	require.NoError(t, err)

	data, err := d.MarshalJSON()
	require.NoError(t, err)

	var out Digest
	require.NoError(t, out.UnmarshalJSON(data))
	assert.True(t, d.Equals(out))
}
