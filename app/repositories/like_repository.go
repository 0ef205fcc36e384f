package repositories

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerLikeRepository implements LikeRepository using BadgerDB.
// A like is the presence of the key like:<postID>:<userID>.
type BadgerLikeRepository struct {
	db *badger.DB
}

// NewBadgerLikeRepository creates a new BadgerLikeRepository
func NewBadgerLikeRepository(db *badger.DB) *BadgerLikeRepository {
	return &BadgerLikeRepository{db: db}
}

// Toggle adds the pair if absent and removes it if present, returning the new state
func (r *BadgerLikeRepository) Toggle(postID, userID string) (bool, error) {
	var liked bool
	err := r.db.Update(func(txn *badger.Txn) error {
		key := likeKey(postID, userID)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			liked = false
			return txn.Delete(key)
		case errors.Is(err, badger.ErrKeyNotFound):
			liked = true
			return txn.Set(key, []byte{})
		default:
			return err
		}
	})
	if err != nil {
		return false, txnError("toggleLike", err)
	}
	return liked, nil
}

// Has reports whether the user currently likes the post
func (r *BadgerLikeRepository) Has(postID, userID string) (bool, error) {
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(likeKey(postID, userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Count returns the number of distinct users liking the post
func (r *BadgerLikeRepository) Count(postID string) (int, error) {
	var count int
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(LikeKeyPrefix + postID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
