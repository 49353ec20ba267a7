package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// RewriteEdgeLabels implements [graph.Adapter]. Badger transactions are
// single-node ACID, so the relabel + deactivate sequence commits or
// rolls back atomically exactly like the postgres backend's.
func (s *Store) RewriteEdgeLabels(_ context.Context, deprecated, target string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved uint64
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var depRec vocabularyRecord
		item, err := txn.Get(vocabTypeKey(deprecated))
		if err != nil {
			return mapErr(err)
		}
		if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &depRec) }); err != nil {
			return err
		}
		if depRec.IsBuiltin {
			return errs.ErrConflict
		}

		var targetRec vocabularyRecord
		titem, err := txn.Get(vocabTypeKey(target))
		if err != nil {
			return mapErr(err)
		}
		if err := titem.Value(func(val []byte) error { return unmarshalJSON(val, &targetRec) }); err != nil {
			return err
		}

		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		prefix := edgeLabelIndexPrefix(deprecated)
		var toMove []struct{ source, target string }
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			source, tgt, ok := splitEdgeLabelKey(it.Item().Key(), deprecated)
			if !ok {
				continue
			}
			toMove = append(toMove, struct{ source, target string }{source, tgt})
		}

		for _, pair := range toMove {
			oldKey := edgeKey(pair.source, pair.target, deprecated)
			item, err := txn.Get(oldKey)
			if err != nil {
				continue
			}
			var rec edgeRecord
			if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
				return err
			}
			newKey := edgeKey(pair.source, pair.target, target)
			if _, err := txn.Get(newKey); err == nil {
				// already present under target: dedupe by dropping the duplicate.
				if err := txn.Delete(oldKey); err != nil {
					return err
				}
				if err := txn.Delete(edgeLabelIndexKey(deprecated, pair.source, pair.target)); err != nil {
					return err
				}
				continue
			}
			rec.Label = target
			if err := txn.Set(newKey, encodeJSON(rec)); err != nil {
				return err
			}
			if err := txn.Set(edgeLabelIndexKey(target, pair.source, pair.target), []byte{}); err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
			if err := txn.Delete(edgeLabelIndexKey(deprecated, pair.source, pair.target)); err != nil {
				return err
			}
			moved++
		}

		depRec.IsActive = false
		if err := txn.Set(vocabTypeKey(deprecated), encodeJSON(depRec)); err != nil {
			return err
		}

		targetRec.UsageCount += moved
		if err := txn.Set(vocabTypeKey(target), encodeJSON(targetRec)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("vocab graph/badger: rewrite edge labels: %w", err)
	}
	return moved, nil
}

// DeactivateType implements [graph.Adapter].
func (s *Store) DeactivateType(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var rec vocabularyRecord
		item, err := txn.Get(vocabTypeKey(name))
		if err != nil {
			return mapErr(err)
		}
		if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
			return err
		}
		if rec.IsBuiltin {
			return errs.ErrConflict
		}

		count, err := s.countEdgesByLabelTxn(txn, name)
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.ErrConflict
		}

		rec.IsActive = false
		return txn.Set(vocabTypeKey(name), encodeJSON(rec))
	})
	if err != nil {
		return fmt.Errorf("vocab graph/badger: deactivate type: %w", err)
	}
	return nil
}

func (s *Store) countEdgesByLabelTxn(txn *badgerdb.Txn, label string) (int, error) {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	prefix := edgeLabelIndexPrefix(label)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count, nil
}

// PruneType implements [graph.Adapter].
func (s *Store) PruneType(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var rec vocabularyRecord
		item, err := txn.Get(vocabTypeKey(name))
		if err != nil {
			return mapErr(err)
		}
		if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
			return err
		}
		if rec.IsBuiltin || rec.UsageCount > 0 {
			return errs.ErrConflict
		}
		return txn.Delete(vocabTypeKey(name))
	})
	if err != nil {
		return fmt.Errorf("vocab graph/badger: prune type: %w", err)
	}
	return nil
}

// UpdateTypeAttributes implements [graph.Adapter]. Structured fields
// travel as native Go values through json.Marshal, not as pre-quoted
// strings, satisfying the same structured-parameter discipline the
// postgres backend follows via internal/attrs.
func (s *Store) UpdateTypeAttributes(_ context.Context, name string, patch types.AttrPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var rec vocabularyRecord
		item, err := txn.Get(vocabTypeKey(name))
		if err != nil {
			return mapErr(err)
		}
		if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
			return err
		}

		if patch.Embedding != nil {
			rec.Embedding = patch.Embedding
		}
		if patch.EmbeddingModelID != nil {
			rec.EmbeddingModelID = *patch.EmbeddingModelID
		}
		if patch.EpistemicStatus != nil {
			rec.EpistemicStatus = string(*patch.EpistemicStatus)
		}
		if patch.EpistemicStats != nil {
			rec.EpistemicStats = *patch.EpistemicStats
		}
		if patch.StatusMeasuredAt != nil {
			rec.StatusMeasuredAt = *patch.StatusMeasuredAt
		}
		if patch.Category != nil {
			rec.Category = *patch.Category
		}
		if patch.CategoryConfidence != nil {
			rec.CategoryConfidence = *patch.CategoryConfidence
		}
		if patch.CategorySource != nil {
			rec.CategorySource = string(*patch.CategorySource)
		}
		rec.UpdatedAtUnix = time.Now().Unix()

		return txn.Set(vocabTypeKey(name), encodeJSON(rec))
	})
	if err != nil {
		return fmt.Errorf("vocab graph/badger: update type attributes: %w", err)
	}
	return nil
}

// BumpMeasurementEpoch implements [graph.Adapter].
func (s *Store) BumpMeasurementEpoch(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next uint64
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var current uint64
		item, err := txn.Get(measureEpochKey)
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				current = decodeEpoch(val)
				return nil
			}); err != nil {
				return err
			}
		case isBadgerNotFound(err):
			current = 0
		default:
			return err
		}
		next = current + 1
		return txn.Set(measureEpochKey, encodeEpoch(next))
	})
	if err != nil {
		return 0, fmt.Errorf("vocab graph/badger: bump measurement epoch: %w", err)
	}
	return next, nil
}
