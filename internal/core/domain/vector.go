package domain

import (
	"math"
	"time"
)

// TruncatedDimensions is the prefix length of the cheap approximate vector.
const TruncatedDimensions = 256

// Embedding is the vector pair attached one-to-one to a requirement item.
// Both vectors are unit-normalized; Truncated is the first
// TruncatedDimensions components of Full, re-normalized independently.
type Embedding struct {
	// ItemID links to the owning RequirementItem.
	ItemID string

	// CommitSHA is the commit at which the vectors were computed.
	CommitSHA string

	// Model is the embedding model name.
	Model string

	// Full is the full-dimension unit vector.
	Full []float32

	// Truncated is the re-normalized prefix vector.
	Truncated []float32

	// ComputedAt is when the vectors were generated.
	ComputedAt time.Time
}

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Truncate returns the first d components of v, re-normalized to unit
// length. If v has fewer than d components a normalized copy of v is
// returned.
func Truncate(v []float32, d int) []float32 {
	if d > len(v) {
		d = len(v)
	}
	out := make([]float32, d)
	copy(out, v[:d])
	return Normalize(out)
}

// Cosine returns the cosine similarity of a and b.
// For unit vectors this is the plain dot product.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
