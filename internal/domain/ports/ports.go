// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/txnsight/internal/domain/entities"
)

// EmbeddingService turns text into fixed-length vectors.
// The same model must be used at index-build and query time.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model, recorded in the index manifest.
	ModelName() string
}

// RecordLoader reads raw tabular input.
type RecordLoader interface {
	// Load reads every row of the source at path.
	Load(ctx context.Context, path string) ([]entities.RawRecord, error)
}

// TransactionStore is the relational source of truth for record content.
type TransactionStore interface {
	// ReplaceAll atomically supersedes the whole table with records.
	ReplaceAll(ctx context.Context, records []entities.TransactionRecord) error

	// FetchByIDs returns the records with the given ids in one query.
	FetchByIDs(ctx context.Context, ids []string) ([]entities.TransactionRecord, error)

	// LoadAll returns a full snapshot of the table.
	LoadAll(ctx context.Context) ([]entities.TransactionRecord, error)

	// Count returns the number of rows in the table.
	Count(ctx context.Context) (int, error)
}

// Neighbor is one hit from a vector index search.
type Neighbor struct {
	Position int
	Distance float32 // Squared Euclidean distance
}

// VectorIndex is an exact nearest-neighbor index keyed by insertion position.
type VectorIndex interface {
	// Dim returns the vector dimension.
	Dim() int

	// Len returns the number of stored vectors.
	Len() int

	// Add appends vectors and returns their positions, sequential from Len().
	Add(vectors [][]float32) ([]int, error)

	// Search returns up to k nearest positions, nearest first.
	Search(query []float32, k int) ([]Neighbor, error)

	// Vector returns the stored vector at pos.
	Vector(pos int) ([]float32, error)
}

// IndexFactory creates an empty index of the given dimension.
type IndexFactory func(dim int) VectorIndex

// IndexSnapshot is a built index with its position-to-id mapping.
type IndexSnapshot struct {
	Index   VectorIndex
	Mapping []string // Mapping[i] is the transaction id at position i
	Model   string
	BuiltAt time.Time
}

// IndexStore persists index snapshots.
type IndexStore interface {
	// Save writes the index, its mapping and manifest.
	Save(ctx context.Context, snap *IndexSnapshot) error

	// Load reads the last saved snapshot.
	Load(ctx context.Context) (*IndexSnapshot, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
