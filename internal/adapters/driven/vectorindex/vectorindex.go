// Package vectorindex holds the similarity helpers shared by the vector
// index adapters in its subpackages.
//
// Local backends (memory, sqlite, bolt) rank by brute-force cosine
// similarity. Qdrant ranks server-side with the Cosine distance.
package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every entry against query and returns the best topK,
// ordered by descending score. Ties are broken by id.
func Rank(query []float32, entries []domain.IndexEntry, topK int) []domain.QueryMatch {
	if topK <= 0 || len(entries) == 0 {
		return nil
	}

	matches := make([]domain.QueryMatch, len(entries))
	for i, e := range entries {
		matches[i] = domain.QueryMatch{
			ID:       e.ID,
			Score:    Cosine(query, e.Vector),
			Metadata: e.Metadata,
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// CheckDimensions reports ErrDimensionMismatch when v does not have want entries.
func CheckDimensions(want int, v []float32) error {
	if len(v) != want {
		return fmt.Errorf("%w: index has %d dimensions, vector has %d",
			domain.ErrDimensionMismatch, want, len(v))
	}
	return nil
}

// EncodeVector packs a vector as little-endian float32s.
func EncodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector reverses EncodeVector.
func DecodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
