// Package determinism provides primitives for guaranteeing reproducible runs.
// Input bytes are hashed, rates are computed in decimal and every ordering
// that reaches an output goes through a stable sort.
package determinism

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"sort"

	"github.com/shopspring/decimal"
)

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// HashingReader hashes everything read through it.
type HashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

// NewHashingReader wraps r
func NewHashingReader(r io.Reader) *HashingReader {
	h := sha256.New()
	return &HashingReader{r: io.TeeReader(r, h), h: h}
}

func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	hr.n += int64(n)
	return n, err
}

// Sum returns the hash of the bytes read so far
func (hr *HashingReader) Sum() ContentHash {
	var out ContentHash
	copy(out[:], hr.h.Sum(nil))
	return out
}

// Size returns the number of bytes read so far
func (hr *HashingReader) Size() int64 {
	return hr.n
}

// Rate returns scale * num / den computed in decimal, so that values like
// 1000 * 500 / 200000 come out as exactly 2.5. ok is false when den is zero.
func Rate(num, den, scale int64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	q := decimal.NewFromInt(num).
		Mul(decimal.NewFromInt(scale)).
		DivRound(decimal.NewFromInt(den), 12)
	f, _ := q.Float64()
	return f, true
}

// SortSlice sorts a slice in a stable, deterministic manner
func SortSlice[T any](slice []T, less func(a, b T) bool) {
	sort.SliceStable(slice, func(i, j int) bool {
		return less(slice[i], slice[j])
	})
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
