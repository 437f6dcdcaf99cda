package history

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/syndtr/goleveldb/leveldb"
	lverrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Store is a read-only handle on a LevelDB history store.
type Store struct {
	db   *leveldb.DB
	once sync.Once
	err  error
}

// OpenStore opens the LevelDB directory at path without creating or modifying it.
func OpenStore(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreOpen, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrStoreOpen, path)
	}

	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		if lverrors.IsCorrupted(err) {
			return nil, fmt.Errorf("%w: corrupt store at %s: %v", shared.ErrStoreOpen, path, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreOpen, err)
	}

	return &Store{db: db}, nil
}

// Records yields every record in key order. The sequence is single-pass.
//
// The underlying iterator is released when the loop finishes, breaks early, or panics.
// Keys and values are copies and stay valid after the iteration step.
func (s *Store) Records(ctx context.Context) iter.Seq2[models.RawRecord, error] {
	return func(yield func(models.RawRecord, error) bool) {
		it := s.db.NewIterator(nil, nil)
		defer it.Release()

		for it.Next() {
			if err := ctx.Err(); err != nil {
				yield(models.RawRecord{}, err)
				return
			}

			rec := models.RawRecord{
				Key:   append([]byte(nil), it.Key()...),
				Value: append([]byte(nil), it.Value()...),
			}
			if !yield(rec, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			yield(models.RawRecord{}, fmt.Errorf("%w: %v", shared.ErrStoreRead, err))
		}
	}
}

// Close releases the store's file handles and lock. Safe to call more than once.
func (s *Store) Close() error {
	s.once.Do(func() {
		if err := s.db.Close(); err != nil && !errors.Is(err, leveldb.ErrClosed) {
			s.err = err
		}
	})
	return s.err
}

// ReadAll opens the store at path, decodes every record, and closes the store before returning.
func ReadAll(ctx context.Context, path string) (models.DecodedHistory, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	dec := NewDecoder()
	for rec, err := range store.Records(ctx) {
		if err != nil {
			return nil, err
		}
		dec.Add(rec)
	}

	return dec.History(), nil
}
