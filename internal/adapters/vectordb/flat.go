// Package vectordb provides vector index adapters.
// FlatIndex implements ports.VectorIndex; FileStore implements ports.IndexStore.
package vectordb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// FlatIndex is an exact nearest-neighbor index using squared Euclidean distance.
// Vectors are kept contiguously and identified by insertion position.
type FlatIndex struct {
	mu   sync.RWMutex
	dim  int
	data []float32 // len(data) == dim * Len()
}

// NewFlatIndex creates an empty index for vectors of length dim.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// NewIndex is a ports.IndexFactory producing flat indexes.
func NewIndex(dim int) ports.VectorIndex {
	return NewFlatIndex(dim)
}

// Dim returns the vector dimension.
func (f *FlatIndex) Dim() int {
	return f.dim
}

// Len returns the number of stored vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.len()
}

func (f *FlatIndex) len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends vectors and returns their positions.
// Nothing is added if any vector has the wrong dimension.
func (f *FlatIndex) Add(vectors [][]float32) ([]int, error) {
	for i, v := range vectors {
		if len(v) != f.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, index has %d", i, len(v), f.dim)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	start := f.len()
	positions := make([]int, len(vectors))
	for i, v := range vectors {
		f.data = append(f.data, v...)
		positions[i] = start + i
	}
	return positions, nil
}

// Search returns the k nearest positions to query, nearest first.
// Ties are broken by position.
func (f *FlatIndex) Search(query []float32, k int) ([]ports.Neighbor, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), f.dim)
	}
	if k <= 0 {
		return []ports.Neighbor{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.len()
	results := make([]ports.Neighbor, n)
	for i := 0; i < n; i++ {
		results[i] = ports.Neighbor{
			Position: i,
			Distance: squaredL2(query, f.data[i*f.dim:(i+1)*f.dim]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Vector returns a copy of the vector at pos.
func (f *FlatIndex) Vector(pos int) ([]float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if pos < 0 || pos >= f.len() {
		return nil, fmt.Errorf("position %d out of range [0, %d)", pos, f.len())
	}
	out := make([]float32, f.dim)
	copy(out, f.data[pos*f.dim:(pos+1)*f.dim])
	return out, nil
}

// squaredL2 calculates the squared Euclidean distance between two vectors.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
