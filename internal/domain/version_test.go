package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Run("Should create valid version from string", func(t *testing.T) {
		version, err := ParseVersion("1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", version.String())
		assert.Equal(t, uint64(1), version.Major())
		assert.Equal(t, uint64(2), version.Minor())
		assert.Equal(t, uint64(3), version.Patch())
	})
	t.Run("Should keep prerelease and build metadata", func(t *testing.T) {
		version, err := ParseVersion("1.2.3-alpha.1+build.7")
		require.NoError(t, err)
		assert.Equal(t, "alpha.1", version.Prerelease())
		assert.Equal(t, "build.7", version.Metadata())
		assert.Equal(t, "1.2.3-alpha.1+build.7", version.String())
	})
	t.Run("Should reject malformed versions", func(t *testing.T) {
		for _, input := range []string{
			"",
			"invalid",
			"v1.2.3",
			"1.2",
			"1.2.3.4",
			"01.2.3",
			"1.02.3",
			"1.2.03",
			"-1.2.3",
			"not-semantic!",
		} {
			version, err := ParseVersion(input)
			assert.Error(t, err, input)
			assert.True(t, errors.Is(err, ErrInvalidVersion), input)
			assert.Nil(t, version, input)
		}
	})
	t.Run("Should round trip through String", func(t *testing.T) {
		for _, input := range []string{"0.0.0", "0.1.0", "10.20.30", "1.0.0-rc.1", "1.0.0+20130313144700", "1.0.0-beta+exp.sha.5114f85"} {
			first, err := ParseVersion(input)
			require.NoError(t, err)
			second, err := ParseVersion(first.String())
			require.NoError(t, err)
			assert.True(t, first.Equal(second), input)
			assert.Equal(t, first.String(), second.String())
		}
	})
}

func TestVersion_BumpMajor(t *testing.T) {
	t.Run("Should reset minor and patch when bumping major", func(t *testing.T) {
		version := MustParseVersion("1.5.8")
		assert.Equal(t, "2.0.0", version.BumpMajor().String())
	})
	t.Run("Should clear prerelease when bumping major", func(t *testing.T) {
		version := MustParseVersion("1.5.8-rc.1+build")
		assert.Equal(t, "2.0.0", version.BumpMajor().String())
	})
	t.Run("Should not modify the receiver", func(t *testing.T) {
		version := MustParseVersion("1.2.3")
		_ = version.BumpMajor()
		assert.Equal(t, "1.2.3", version.String())
	})
}

func TestVersion_BumpMinor(t *testing.T) {
	t.Run("Should reset patch when bumping minor", func(t *testing.T) {
		version := MustParseVersion("1.2.5")
		assert.Equal(t, "1.3.0", version.BumpMinor().String())
	})
	t.Run("Should clear prerelease when bumping minor", func(t *testing.T) {
		version := MustParseVersion("1.2.5-beta")
		assert.Equal(t, "1.3.0", version.BumpMinor().String())
	})
}

func TestVersion_BumpPatch(t *testing.T) {
	t.Run("Should only increment patch version", func(t *testing.T) {
		for _, input := range []string{"0.0.0", "2.5.0", "1.2.3", "7.8.99"} {
			version := MustParseVersion(input)
			bumped := version.BumpPatch()
			assert.Equal(t, version.Major(), bumped.Major(), input)
			assert.Equal(t, version.Minor(), bumped.Minor(), input)
			assert.Equal(t, version.Patch()+1, bumped.Patch(), input)
		}
	})
	t.Run("Should increment patch of a prerelease instead of promoting it", func(t *testing.T) {
		version := MustParseVersion("1.0.1-prerelease")
		assert.Equal(t, "1.0.2", version.BumpPatch().String())
	})
}

func TestVersion_Compare(t *testing.T) {
	t.Run("Should compare versions correctly", func(t *testing.T) {
		v1 := MustParseVersion("1.2.3")
		v2 := MustParseVersion("1.2.4")
		v3 := MustParseVersion("1.2.3")
		assert.Equal(t, -1, v1.Compare(v2))
		assert.Equal(t, 1, v2.Compare(v1))
		assert.Equal(t, 0, v1.Compare(v3))
	})
	t.Run("Should order by major, minor then patch", func(t *testing.T) {
		ordered := []string{"1.0.0", "1.0.1", "1.1.0", "2.0.0"}
		for i := 0; i < len(ordered)-1; i++ {
			assert.True(t, MustParseVersion(ordered[i]).LessThan(MustParseVersion(ordered[i+1])),
				"%s < %s", ordered[i], ordered[i+1])
		}
	})
	t.Run("Should order prerelease versions before the release", func(t *testing.T) {
		ordered := []string{
			"1.0.0-alpha",
			"1.0.0-alpha.1",
			"1.0.0-alpha.beta",
			"1.0.0-beta",
			"1.0.0-beta.2",
			"1.0.0-beta.11",
			"1.0.0-rc.1",
			"1.0.0",
		}
		for i := 0; i < len(ordered)-1; i++ {
			assert.True(t, MustParseVersion(ordered[i]).LessThan(MustParseVersion(ordered[i+1])),
				"%s < %s", ordered[i], ordered[i+1])
		}
	})
	t.Run("Should ignore build metadata", func(t *testing.T) {
		assert.True(t, MustParseVersion("1.0.0+a").Equal(MustParseVersion("1.0.0+b")))
	})
}

func TestLatestVersion(t *testing.T) {
	t.Run("Should return the highest precedence version", func(t *testing.T) {
		versions := FilterSemanticVersions([]string{"0.1.0", "0.1.1", "0.1.1-prerelease", "0.2.0", "1.0.0"}, nil)
		assert.Equal(t, "1.0.0", LatestVersion(versions).String())
	})
	t.Run("Should not be fooled by lexical ordering", func(t *testing.T) {
		versions := FilterSemanticVersions([]string{"10.0.0", "9.0.0", "2.0.0"}, nil)
		assert.Equal(t, "10.0.0", LatestVersion(versions).String())
	})
	t.Run("Should return nil for no versions", func(t *testing.T) {
		assert.Nil(t, LatestVersion(nil))
	})
}

func TestFilterSemanticVersions(t *testing.T) {
	t.Run("Should drop names that are not semantic versions", func(t *testing.T) {
		var dropped []string
		versions := FilterSemanticVersions(
			[]string{"1.2.3", "1.2.3-alpha", "foo", "tag/with/slashes", "hello-world", "v2.0.0"},
			func(name string, err error) {
				assert.ErrorIs(t, err, ErrInvalidVersion)
				dropped = append(dropped, name)
			},
		)
		require.Len(t, versions, 2)
		assert.Equal(t, "1.2.3", versions[0].String())
		assert.Equal(t, "1.2.3-alpha", versions[1].String())
		assert.Equal(t, []string{"foo", "tag/with/slashes", "hello-world", "v2.0.0"}, dropped)
	})
}
