package preservation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/preservd/internal/preservation"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestComputeChecksums_KnownDigests(t *testing.T) {
	engine := preservation.NewFixityEngine()

	digests, err := engine.ComputeChecksums(strings.NewReader("hello world"), nil)
	require.NoError(t, err)

	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", digests[preservation.AlgMD5])
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digests[preservation.AlgSHA256])
	assert.Len(t, digests, 2, "default algorithm set is md5+sha256")
}

func TestComputeChecksums_Deterministic(t *testing.T) {
	engine := preservation.NewFixityEngine()
	algorithms := []preservation.Algorithm{preservation.AlgMD5, preservation.AlgSHA256, preservation.AlgSHA512}

	first, err := engine.ComputeChecksums(strings.NewReader("same bytes"), algorithms)
	require.NoError(t, err)
	second, err := engine.ComputeChecksums(strings.NewReader("same bytes"), algorithms)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestComputeChecksums_UnsupportedAlgorithm(t *testing.T) {
	engine := preservation.NewFixityEngine()

	_, err := engine.ComputeChecksums(strings.NewReader("x"), []preservation.Algorithm{"crc32"})
	require.Error(t, err)
	assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))
}

func TestComputeChecksums_ReadFailure(t *testing.T) {
	engine := preservation.NewFixityEngine()

	_, err := engine.ComputeChecksums(failingReader{}, nil)
	require.Error(t, err)
	assert.Equal(t, preservation.KindIO, preservation.KindOf(err))
}

func TestBuildFixityInfo(t *testing.T) {
	engine := preservation.NewFixityEngine()

	t.Run("requires both mandatory checksums", func(t *testing.T) {
		_, err := engine.BuildFixityInfo(map[preservation.Algorithm]string{
			preservation.AlgMD5: "abc",
		})
		require.Error(t, err)
		assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))

		_, err = engine.BuildFixityInfo(map[preservation.Algorithm]string{
			preservation.AlgSHA256: "def",
		})
		require.Error(t, err)
		assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))
	})

	t.Run("preserves values and records sha512 when present", func(t *testing.T) {
		info, err := engine.BuildFixityInfo(map[preservation.Algorithm]string{
			preservation.AlgMD5:    "abc",
			preservation.AlgSHA256: "def",
			preservation.AlgSHA512: "ghi",
		})
		require.NoError(t, err)

		assert.Equal(t, "abc", info.ChecksumMD5)
		assert.Equal(t, "def", info.ChecksumSHA256)
		assert.Equal(t, []preservation.Algorithm{
			preservation.AlgMD5, preservation.AlgSHA256, preservation.AlgSHA512,
		}, info.Algorithms)
		assert.False(t, info.CalculatedAt.IsZero())
		assert.Nil(t, info.VerifiedAt)
	})
}

func TestVerify(t *testing.T) {
	engine := preservation.NewFixityEngine()

	expected := map[preservation.Algorithm]string{
		preservation.AlgMD5:    "aaa",
		preservation.AlgSHA256: "bbb",
	}

	t.Run("all match", func(t *testing.T) {
		match, mismatches := engine.Verify(expected, map[preservation.Algorithm]string{
			preservation.AlgMD5:    "aaa",
			preservation.AlgSHA256: "bbb",
		})
		assert.True(t, match)
		assert.Empty(t, mismatches)
	})

	t.Run("value mismatch reported", func(t *testing.T) {
		match, mismatches := engine.Verify(expected, map[preservation.Algorithm]string{
			preservation.AlgMD5:    "aaa",
			preservation.AlgSHA256: "corrupted",
		})
		assert.False(t, match)
		require.Len(t, mismatches, 1)
		assert.Contains(t, mismatches[0], "sha256")
	})

	t.Run("missing algorithm is a mismatch, not ignored", func(t *testing.T) {
		match, mismatches := engine.Verify(expected, map[preservation.Algorithm]string{
			preservation.AlgMD5: "aaa",
		})
		assert.False(t, match)
		require.Len(t, mismatches, 1)
		assert.Contains(t, mismatches[0], "not calculated")
	})
}
