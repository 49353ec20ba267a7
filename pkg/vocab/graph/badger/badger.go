// Package badger provides an embedded, dependency-free Graph Adapter
// backed by BadgerDB. It needs no external database process: a single
// on-disk (or in-memory, for tests) key-value store holds vocabulary
// types, edges, category seeds, and aggressiveness profiles behind
// single-byte key prefixes, the same convention the badger-backed graph
// store this package is grounded on uses for its own node/edge/index
// keys.
//
// Usage:
//
//	store, err := badger.Open(badger.Options{DataDir: "./data/vocab"})
//	if err != nil { … }
//	defer store.Close()
package badger

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

const (
	prefixVocabType     = byte(0x01) // vocabtype:name -> JSON(vocabularyRecord)
	prefixEdge          = byte(0x02) // edge:source\x00target\x00label -> JSON(edgeRecord)
	prefixEdgeLabel     = byte(0x03) // edgelabel:label\x00source\x00target -> {}
	prefixCategorySeed  = byte(0x04) // seed:name -> JSON(seedRecord)
	prefixProfile       = byte(0x05) // profile:name -> JSON(profileRecord)
	prefixMeasureEpoch  = byte(0x06) // a single key holding a big-endian uint64 counter
)

var measureEpochKey = []byte{prefixMeasureEpoch}

// Store is the embedded Graph Adapter. Safe for concurrent use; BadgerDB
// serializes writers and the schema-free design needs no migration step.
type Store struct {
	db *badgerdb.DB
	mu sync.Mutex // serializes the read-modify-write sequences below
}

var _ graph.Adapter = (*Store)(nil)

// Options configures [Open].
type Options struct {
	// DataDir is the directory for on-disk storage. Ignored if InMemory.
	DataDir string
	// InMemory runs BadgerDB entirely in RAM; data does not survive Close.
	InMemory bool
}

// Open creates or opens the embedded store at opts.DataDir.
func Open(opts Options) (*Store, error) {
	bopts := badgerdb.DefaultOptions(opts.DataDir).WithLogger(nil)
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func vocabTypeKey(name string) []byte {
	return append([]byte{prefixVocabType}, name...)
}

func edgeKey(source, target, label string) []byte {
	key := make([]byte, 0, 1+len(source)+1+len(target)+1+len(label))
	key = append(key, prefixEdge)
	key = append(key, source...)
	key = append(key, 0x00)
	key = append(key, target...)
	key = append(key, 0x00)
	key = append(key, label...)
	return key
}

func edgeLabelIndexKey(label, source, target string) []byte {
	key := make([]byte, 0, 1+len(label)+1+len(source)+1+len(target))
	key = append(key, prefixEdgeLabel)
	key = append(key, label...)
	key = append(key, 0x00)
	key = append(key, source...)
	key = append(key, 0x00)
	key = append(key, target...)
	return key
}

func edgeLabelIndexPrefix(label string) []byte {
	key := make([]byte, 0, 1+len(label)+1)
	key = append(key, prefixEdgeLabel)
	key = append(key, label...)
	key = append(key, 0x00)
	return key
}

func categorySeedKey(name string) []byte {
	return append([]byte{prefixCategorySeed}, name...)
}

func profileKey(name string) []byte {
	return append([]byte{prefixProfile}, name...)
}

// vocabularyRecord is the JSON-serializable form of a types.VocabularyType.
type vocabularyRecord struct {
	Name               string               `json:"name"`
	Category           string               `json:"category"`
	CategoryConfidence float64              `json:"category_confidence"`
	CategorySource     string               `json:"category_source"`
	IsBuiltin          bool                 `json:"is_builtin"`
	IsActive           bool                 `json:"is_active"`
	UsageCount         uint64               `json:"usage_count"`
	Embedding          []float32            `json:"embedding,omitempty"`
	EmbeddingModelID   string               `json:"embedding_model_id"`
	EpistemicStatus    string               `json:"epistemic_status"`
	EpistemicStats     types.EpistemicStats `json:"epistemic_stats"`
	StatusMeasuredAt   uint64               `json:"status_measured_at"`
	CreatedAtUnix      int64                `json:"created_at"`
	UpdatedAtUnix      int64                `json:"updated_at"`
}

type edgeRecord struct {
	SourceID   string  `json:"source_id"`
	TargetID   string  `json:"target_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Grounding  float64 `json:"grounding"`
}

type categorySeedRecord struct {
	Name          string    `json:"name"`
	SeedText      []string  `json:"seed_text"`
	SeedEmbedding []float32 `json:"seed_embedding,omitempty"`
}

type profileRecord struct {
	Name      string  `json:"name"`
	IsBuiltin bool    `json:"is_builtin"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
}

func encodeJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("vocab graph/badger: marshal %T: %v", v, err))
	}
	return data
}

func unmarshalJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// deterministicRand is a tiny linear-congruential shuffle, identical in
// spirit to the in-memory mock adapter's, used only so SampleEdges is
// reproducible given the same seed.
type deterministicRand struct{ state uint64 }

func newDeterministicRand(seed int64) *deterministicRand {
	return &deterministicRand{state: uint64(seed) ^ 0x9E3779B97F4A7C15}
}

func (r *deterministicRand) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *deterministicRand) shuffle(edges []types.Edge) {
	for i := len(edges) - 1; i > 0; i-- {
		j := int(r.next() % uint64(i+1))
		edges[i], edges[j] = edges[j], edges[i]
	}
}

func encodeEpoch(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func decodeEpoch(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func hasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}

func sortVocabularyTypes(vs []types.VocabularyType) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Name < vs[j].Name })
}

func isBadgerNotFound(err error) bool {
	return err == badgerdb.ErrKeyNotFound
}

// mapErr translates BadgerDB's own sentinel errors to this package's.
func mapErr(err error) error {
	if isBadgerNotFound(err) {
		return errs.ErrNotFound
	}
	return err
}
