package vectordb

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// File suffixes of the sidecars written next to the index file.
const (
	MappingSuffix  = ".meta.csv"
	ManifestSuffix = ".manifest.yaml"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyDim        = []byte("dim")
)

var mappingHeader = []string{"position", "transaction_id"}

// Manifest describes a saved index.
type Manifest struct {
	Model     string    `yaml:"model"`
	Dimension int       `yaml:"dimension"`
	Count     int       `yaml:"count"`
	BuiltAt   time.Time `yaml:"built_at"`
}

// FileStore persists index snapshots as three files: a bbolt index file,
// a CSV position-to-id mapping and a YAML manifest.
type FileStore struct {
	indexPath string
	factory   ports.IndexFactory
	logger    *zap.Logger
}

// NewFileStore creates a FileStore rooted at indexPath.
// Loaded vectors go into indexes created by factory (NewIndex if nil).
func NewFileStore(indexPath string, factory ports.IndexFactory, logger *zap.Logger) *FileStore {
	if factory == nil {
		factory = NewIndex
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{indexPath: indexPath, factory: factory, logger: logger.Named("indexstore")}
}

// IndexPath returns the path of the index file.
func (s *FileStore) IndexPath() string { return s.indexPath }

// MappingPath returns the path of the id mapping file.
func (s *FileStore) MappingPath() string { return s.indexPath + MappingSuffix }

// ManifestPath returns the path of the manifest file.
func (s *FileStore) ManifestPath() string { return s.indexPath + ManifestSuffix }

// Save writes all three files to temporary paths and renames them into place,
// manifest last.
func (s *FileStore) Save(ctx context.Context, snap *ports.IndexSnapshot) error {
	if snap == nil || snap.Index == nil {
		return errors.New("nil index snapshot")
	}
	if snap.Index.Len() != len(snap.Mapping) {
		return fmt.Errorf("index holds %d vectors, mapping has %d ids", snap.Index.Len(), len(snap.Mapping))
	}
	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	targets := []string{s.IndexPath(), s.MappingPath(), s.ManifestPath()}
	temps := make([]string, len(targets))
	for i, t := range targets {
		temps[i] = t + ".tmp"
		os.Remove(temps[i])
	}
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	if err := writeVectors(ctx, temps[0], snap.Index); err != nil {
		cleanup()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := writeMapping(temps[1], snap.Mapping); err != nil {
		cleanup()
		return fmt.Errorf("writing mapping file: %w", err)
	}
	manifest := Manifest{
		Model:     snap.Model,
		Dimension: snap.Index.Dim(),
		Count:     snap.Index.Len(),
		BuiltAt:   snap.BuiltAt,
	}
	if err := writeManifest(temps[2], manifest); err != nil {
		cleanup()
		return fmt.Errorf("writing manifest: %w", err)
	}

	for i := range targets {
		if err := os.Rename(temps[i], targets[i]); err != nil {
			cleanup()
			return fmt.Errorf("installing %s: %w", filepath.Base(targets[i]), err)
		}
	}

	s.logger.Info("index saved",
		zap.String("path", s.indexPath),
		zap.Int("vectors", manifest.Count),
		zap.Int("dim", manifest.Dimension))
	return nil
}

// Load reads the manifest, the mapping and the vectors and checks they agree.
func (s *FileStore) Load(ctx context.Context) (*ports.IndexSnapshot, error) {
	manifest, err := readManifest(s.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	mapping, err := readMapping(s.MappingPath())
	if err != nil {
		return nil, fmt.Errorf("reading mapping: %w", err)
	}
	index, err := s.readVectors(ctx, s.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	if index.Dim() != manifest.Dimension {
		return nil, fmt.Errorf("index dimension %d does not match manifest %d", index.Dim(), manifest.Dimension)
	}
	if index.Len() != manifest.Count || len(mapping) != manifest.Count {
		return nil, fmt.Errorf("manifest count %d, index has %d vectors, mapping has %d ids",
			manifest.Count, index.Len(), len(mapping))
	}

	return &ports.IndexSnapshot{
		Index:   index,
		Mapping: mapping,
		Model:   manifest.Model,
		BuiltAt: manifest.BuiltAt,
	}, nil
}

func positionKey(pos int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(pos))
	return key
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte, dim int) ([]float32, error) {
	if len(buf) != 4*dim {
		return nil, fmt.Errorf("vector has %d bytes, want %d", len(buf), 4*dim)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

func writeVectors(ctx context.Context, path string, index ports.VectorIndex) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		dim := make([]byte, 4)
		binary.BigEndian.PutUint32(dim, uint32(index.Dim()))
		if err := meta.Put(keyDim, dim); err != nil {
			return err
		}

		vectors, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return err
		}
		// Keys are appended in order
		vectors.FillPercent = 1.0
		for pos := 0; pos < index.Len(); pos++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := index.Vector(pos)
			if err != nil {
				return err
			}
			if err := vectors.Put(positionKey(pos), encodeVector(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *FileStore) readVectors(ctx context.Context, path string) (ports.VectorIndex, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var index ports.VectorIndex
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return errors.New("missing meta bucket")
		}
		rawDim := meta.Get(keyDim)
		if len(rawDim) != 4 {
			return errors.New("missing dimension")
		}
		dim := int(binary.BigEndian.Uint32(rawDim))
		index = s.factory(dim)

		vectors := tx.Bucket(bucketVectors)
		if vectors == nil {
			return errors.New("missing vectors bucket")
		}

		var batch [][]float32
		next := 0
		err := vectors.ForEach(func(k, v []byte) error {
			if len(k) != 8 || int(binary.BigEndian.Uint64(k)) != next {
				return fmt.Errorf("vector keys are not contiguous at position %d", next)
			}
			// decodeVector copies out of the mmap'd page
			vec, err := decodeVector(v, dim)
			if err != nil {
				return fmt.Errorf("position %d: %w", next, err)
			}
			batch = append(batch, vec)
			next++
			return nil
		})
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = index.Add(batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

func writeMapping(path string, mapping []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(mappingHeader); err != nil {
		f.Close()
		return err
	}
	for pos, id := range mapping {
		if err := w.Write([]string{strconv.Itoa(pos), id}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readMapping(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != 2 ||
		records[0][0] != mappingHeader[0] || records[0][1] != mappingHeader[1] {
		return nil, errors.New("unexpected mapping header")
	}

	mapping := make([]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		pos, err := strconv.Atoi(rec[0])
		if err != nil || pos != i {
			return nil, fmt.Errorf("mapping row %d has position %q", i, rec[0])
		}
		mapping = append(mapping, rec[1])
	}
	return mapping, nil
}

func writeManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, err
	}
	return m, nil
}
