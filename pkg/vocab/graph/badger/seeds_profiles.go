package badger

import (
	"context"
	"fmt"
	"sort"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// ListCategorySeeds implements [graph.Adapter].
func (s *Store) ListCategorySeeds(_ context.Context) ([]types.CategorySeed, error) {
	var out []types.CategorySeed
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixCategorySeed}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec categorySeedRecord
			if err := it.Item().Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
				return err
			}
			out = append(out, types.CategorySeed{Name: rec.Name, SeedText: rec.SeedText, SeedEmbedding: rec.SeedEmbedding})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: list category seeds: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if out == nil {
		out = []types.CategorySeed{}
	}
	return out, nil
}

// ListProfiles implements [graph.Adapter].
func (s *Store) ListProfiles(_ context.Context) ([]types.AggressivenessProfile, error) {
	var out []types.AggressivenessProfile
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixProfile}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec profileRecord
			if err := it.Item().Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
				return err
			}
			out = append(out, types.AggressivenessProfile{Name: rec.Name, IsBuiltin: rec.IsBuiltin, X1: rec.X1, Y1: rec.Y1, X2: rec.X2, Y2: rec.Y2})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vocab graph/badger: list profiles: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if out == nil {
		out = []types.AggressivenessProfile{}
	}
	return out, nil
}

// GetProfile implements [graph.Adapter].
func (s *Store) GetProfile(_ context.Context, name string) (types.AggressivenessProfile, error) {
	var rec profileRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(profileKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) })
	})
	if err != nil {
		return types.AggressivenessProfile{}, mapErr(err)
	}
	return types.AggressivenessProfile{Name: rec.Name, IsBuiltin: rec.IsBuiltin, X1: rec.X1, Y1: rec.Y1, X2: rec.X2, Y2: rec.Y2}, nil
}

// PutProfile implements [graph.Adapter].
func (s *Store) PutProfile(_ context.Context, p types.AggressivenessProfile) error {
	if p.IsBuiltin {
		return errs.ErrConflict
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(profileKey(p.Name))
		if err == nil {
			var existing profileRecord
			if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &existing) }); err != nil {
				return err
			}
			if existing.IsBuiltin {
				return errs.ErrConflict
			}
		} else if !isBadgerNotFound(err) {
			return err
		}
		rec := profileRecord{Name: p.Name, IsBuiltin: false, X1: p.X1, Y1: p.Y1, X2: p.X2, Y2: p.Y2}
		return txn.Set(profileKey(p.Name), encodeJSON(rec))
	})
	if err != nil {
		return fmt.Errorf("vocab graph/badger: put profile: %w", err)
	}
	return nil
}

// DeleteProfile implements [graph.Adapter].
func (s *Store) DeleteProfile(_ context.Context, name string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(profileKey(name))
		if err != nil {
			return mapErr(err)
		}
		var rec profileRecord
		if err := item.Value(func(val []byte) error { return unmarshalJSON(val, &rec) }); err != nil {
			return err
		}
		if rec.IsBuiltin {
			return errs.ErrConflict
		}
		return txn.Delete(profileKey(name))
	})
	if err != nil {
		return fmt.Errorf("vocab graph/badger: delete profile: %w", err)
	}
	return nil
}

// PutCategorySeed seeds a single category anchor. Exercised by tests and
// the category-refresh pass' bootstrap path.
func (s *Store) PutCategorySeed(_ context.Context, c types.CategorySeed) error {
	rec := categorySeedRecord{Name: c.Name, SeedText: c.SeedText, SeedEmbedding: c.SeedEmbedding}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(categorySeedKey(c.Name), encodeJSON(rec))
	})
}
