package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModuleReference_Local(t *testing.T) {
	cases := []string{"./foo.bicep", "../shared/bar.bicep", "mod.bicep"}
	for _, c := range cases {
		ref, err := ParseModuleReference(c)
		require.NoError(t, err, c)
		assert.True(t, ref.IsLocal())
		assert.Equal(t, c, ref.Path())
	}
}

func TestParseModuleReference_Oci(t *testing.T) {
	ref, err := ParseModuleReference("oci:example.com/test/x:v1")
	require.NoError(t, err)
	assert.True(t, ref.IsOci())
	assert.Equal(t, "example.com", ref.Registry())
	assert.Equal(t, "test/x", ref.Repository())
	assert.Equal(t, "v1", ref.Tag())
	assert.Equal(t, []string{"test", "x"}, ref.RepositorySegments())
	assert.Equal(t, []string{"example.com", "test", "x", "v1"}, ref.CacheSegments())
}

func TestParseModuleReference_Malformed(t *testing.T) {
	_, err := ParseModuleReference("fake:")
	var malformed *MalformedReferenceError
	require.ErrorAs(t, err, &malformed)
}

func TestParseModuleReference_MissingTag(t *testing.T) {
	_, err := ParseModuleReference("oci:example.com/test/x")
	var malformed *MalformedReferenceError
	require.ErrorAs(t, err, &malformed)
}

func TestParseModuleReference_UnsupportedScheme(t *testing.T) {
	_, err := ParseModuleReference("http://example.com/x")
	var unsupported *UnsupportedTargetError
	require.ErrorAs(t, err, &unsupported)
}

func TestModuleReference_Equals(t *testing.T) {
	a := NewOciReference("reg.io", "org/repo", "1.0")
	b := NewOciReference("reg.io", "org/repo", "1.0")
	c := NewOciReference("reg.io", "ORG/repo", "1.0")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c), "registry/repository/tag equality is case-sensitive")

	local1 := NewLocalReference("./foo.bicep")
	local2 := NewLocalReference("./foo.bicep")
	assert.True(t, local1.Equals(local2))
	assert.False(t, local1.Equals(a))
}

func TestModuleReference_String(t *testing.T) {
	ref := NewOciReference("example.com", "test/x", "v1")
	assert.Equal(t, "oci:example.com/test/x:v1", ref.String())

	local := NewLocalReference("./foo.bicep")
	assert.Equal(t, "./foo.bicep", local.String())
}
