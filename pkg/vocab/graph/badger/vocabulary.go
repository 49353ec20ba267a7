package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func toRecord(t types.VocabularyType) vocabularyRecord {
	return vocabularyRecord{
		Name:               t.Name,
		Category:           t.Category,
		CategoryConfidence: t.CategoryConfidence,
		CategorySource:     string(t.CategorySource),
		IsBuiltin:          t.IsBuiltin,
		IsActive:           t.IsActive,
		UsageCount:         t.UsageCount,
		Embedding:          t.Embedding,
		EmbeddingModelID:   t.EmbeddingModelID,
		EpistemicStatus:    string(t.EpistemicStatus),
		EpistemicStats:     t.EpistemicStats,
		StatusMeasuredAt:   t.StatusMeasuredAt,
		CreatedAtUnix:      t.CreatedAt.Unix(),
		UpdatedAtUnix:      t.UpdatedAt.Unix(),
	}
}

func fromRecord(r vocabularyRecord) types.VocabularyType {
	return types.VocabularyType{
		Name:               r.Name,
		Category:           r.Category,
		CategoryConfidence: r.CategoryConfidence,
		CategorySource:     types.CategorySource(r.CategorySource),
		IsBuiltin:          r.IsBuiltin,
		IsActive:           r.IsActive,
		UsageCount:         r.UsageCount,
		Embedding:          r.Embedding,
		EmbeddingModelID:   r.EmbeddingModelID,
		EpistemicStatus:    types.EpistemicStatus(r.EpistemicStatus),
		EpistemicStats:     r.EpistemicStats,
		StatusMeasuredAt:   r.StatusMeasuredAt,
		CreatedAt:          unixToTime(r.CreatedAtUnix),
		UpdatedAt:          unixToTime(r.UpdatedAtUnix),
	}
}

func unixToTime(unix int64) time.Time {
	if unix <= 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

// ListVocabulary implements [graph.Adapter]. Results are always sorted
// by name, matching the postgres backend's ORDER BY name.
func (s *Store) ListVocabulary(_ context.Context, filter types.VocabularyFilter) ([]types.VocabularyType, error) {
	var out []types.VocabularyType
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixVocabType}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec vocabularyRecord
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalJSON(val, &rec)
			}); err != nil {
				return err
			}
			t := fromRecord(rec)
			if !filter.IncludeInactive && !t.IsActive {
				continue
			}
			if !filter.IncludeBuiltin && t.IsBuiltin {
				continue
			}
			if filter.OnlyWithEmbeddings && !t.HasEmbedding() {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: list vocabulary: %w", err)
	}
	sortVocabularyTypes(out)
	if out == nil {
		out = []types.VocabularyType{}
	}
	return out, nil
}

// GetType implements [graph.Adapter].
func (s *Store) GetType(_ context.Context, name string) (types.VocabularyType, error) {
	var rec vocabularyRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(vocabTypeKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) })
	})
	if err != nil {
		return types.VocabularyType{}, mapErr(err)
	}
	return fromRecord(rec), nil
}

// CountEdgesByLabel implements [graph.Adapter].
func (s *Store) CountEdgesByLabel(_ context.Context, name string) (uint64, error) {
	var count uint64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := edgeLabelIndexPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("vocab graph/badger: count edges: %w", err)
	}
	return count, nil
}

func (s *Store) edgesByLabel(label string) ([]types.Edge, error) {
	var out []types.Edge
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := edgeLabelIndexPrefix(label)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			source, target, ok := splitEdgeLabelKey(it.Item().Key(), label)
			if !ok {
				continue
			}
			item, err := txn.Get(edgeKey(source, target, label))
			if err != nil {
				continue
			}
			var rec edgeRecord
			if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
				continue
			}
			out = append(out, types.Edge{
				SourceID:   rec.SourceID,
				TargetID:   rec.TargetID,
				Label:      rec.Label,
				Confidence: rec.Confidence,
				Grounding:  rec.Grounding,
			})
		}
		return nil
	})
	return out, err
}

func splitEdgeLabelKey(key []byte, label string) (source, target string, ok bool) {
	rest := key[1+len(label)+1:]
	for i := range rest {
		if rest[i] == 0x00 {
			return string(rest[:i]), string(rest[i+1:]), true
		}
	}
	return "", "", false
}

// SampleEdges implements [graph.Adapter]. All edges bearing label are
// collected, then shuffled with a deterministic LCG seeded from seed so
// the same seed always yields the same sample — BadgerDB has no native
// random-sampling primitive, so reproducibility is implemented here
// rather than pushed down to the store.
func (s *Store) SampleEdges(_ context.Context, label string, n int, seed int64) ([]types.Edge, error) {
	matching, err := s.edgesByLabel(label)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: sample edges: %w", err)
	}
	r := newDeterministicRand(seed)
	r.shuffle(matching)
	if n < len(matching) {
		matching = matching[:n]
	}
	if matching == nil {
		matching = []types.Edge{}
	}
	return matching, nil
}

// IncidentEdges implements [graph.Adapter].
func (s *Store) IncidentEdges(_ context.Context, nodeID string) ([]types.Edge, error) {
	var out []types.Edge
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixEdge}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec edgeRecord
			if err := it.Item().Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
				return err
			}
			if rec.SourceID == nodeID || rec.TargetID == nodeID {
				out = append(out, types.Edge{
					SourceID:   rec.SourceID,
					TargetID:   rec.TargetID,
					Label:      rec.Label,
					Confidence: rec.Confidence,
					Grounding:  rec.Grounding,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: incident edges: %w", err)
	}
	if out == nil {
		out = []types.Edge{}
	}
	return out, nil
}

// PutVocabularyType is a package-local helper exercised by tests and by
// the embedding/category-refresh passes that need to seed fixture data
// directly, bypassing UpdateTypeAttributes' partial-patch semantics.
func (s *Store) PutVocabularyType(_ context.Context, t types.VocabularyType) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(vocabTypeKey(t.Name), encodeJSON(toRecord(t)))
	})
}

// PutEdge seeds a single edge, maintaining both the primary edge record
// and its label index. Exercised by tests and bulk-load tooling.
func (s *Store) PutEdge(_ context.Context, e types.Edge) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		rec := edgeRecord{SourceID: e.SourceID, TargetID: e.TargetID, Label: e.Label, Confidence: e.Confidence, Grounding: e.Grounding}
		if err := txn.Set(edgeKey(e.SourceID, e.TargetID, e.Label), encodeJSON(rec)); err != nil {
			return err
		}
		return txn.Set(edgeLabelIndexKey(e.Label, e.SourceID, e.TargetID), []byte{})
	})
}
