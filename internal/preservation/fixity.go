package preservation

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"time"
)

// fixityChunkSize bounds the per-read buffer so memory use is independent of
// file size.
const fixityChunkSize = 8 * 1024 * 1024

// DefaultAlgorithms are used when the caller does not request a specific set.
var DefaultAlgorithms = []Algorithm{AlgMD5, AlgSHA256}

// FixityEngine computes and verifies streaming multi-algorithm checksums.
// It has no side effects beyond consuming the stream.
type FixityEngine struct{}

// NewFixityEngine constructs a FixityEngine.
func NewFixityEngine() *FixityEngine {
	return &FixityEngine{}
}

// ComputeChecksums reads the stream once in bounded chunks, updating every
// requested hasher per chunk, and returns lowercase hex digests keyed by
// algorithm name.
func (e *FixityEngine) ComputeChecksums(stream io.Reader, algorithms []Algorithm) (map[Algorithm]string, error) {
	if len(algorithms) == 0 {
		algorithms = DefaultAlgorithms
	}

	hashers := make(map[Algorithm]hash.Hash, len(algorithms))
	for _, alg := range algorithms {
		switch alg {
		case AlgMD5:
			hashers[alg] = md5.New()
		case AlgSHA256:
			hashers[alg] = sha256.New()
		case AlgSHA512:
			hashers[alg] = sha512.New()
		default:
			return nil, Errf(KindValidation, "unsupported checksum algorithm %q", alg)
		}
	}

	buf := make([]byte, fixityChunkSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			for _, h := range hashers {
				h.Write(buf[:n]) //nolint:errcheck
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Wrap(KindIO, err, "read stream for checksum")
		}
	}

	digests := make(map[Algorithm]string, len(hashers))
	for alg, h := range hashers {
		digests[alg] = hex.EncodeToString(h.Sum(nil))
	}
	return digests, nil
}

// BuildFixityInfo turns computed checksums into the durable fixity record.
// MD5 and SHA-256 are both mandatory.
func (e *FixityEngine) BuildFixityInfo(checksums map[Algorithm]string) (*FixityInfo, error) {
	md5sum, okMD5 := checksums[AlgMD5]
	sha256sum, okSHA := checksums[AlgSHA256]
	if !okMD5 || !okSHA {
		return nil, Errf(KindValidation, "both md5 and sha256 checksums are required for fixity info")
	}

	algorithms := []Algorithm{AlgMD5, AlgSHA256}
	if _, ok := checksums[AlgSHA512]; ok {
		algorithms = append(algorithms, AlgSHA512)
	}

	return &FixityInfo{
		ChecksumMD5:    md5sum,
		ChecksumSHA256: sha256sum,
		Algorithms:     algorithms,
		CalculatedAt:   time.Now().UTC(),
	}, nil
}

// Verify compares expected against actual digests per algorithm. An algorithm
// present in expected but absent from actual counts as a mismatch.
func (e *FixityEngine) Verify(expected, actual map[Algorithm]string) (bool, []string) {
	var mismatches []string
	for alg, want := range expected {
		got, ok := actual[alg]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: not calculated", alg))
			continue
		}
		if got != want {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s", alg, want, got))
		}
	}
	return len(mismatches) == 0, mismatches
}
