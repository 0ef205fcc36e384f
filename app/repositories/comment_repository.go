package repositories

import (
	"fmt"
	"sync"
	"time"

	"lostfound/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Keys are comment:<postID>:<seq>, so a prefix scan yields creation order.
type BadgerCommentRepository struct {
	db   *badger.DB
	seq  *badger.Sequence
	mu   sync.Mutex
	last time.Time
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) (*BadgerCommentRepository, error) {
	seq, err := db.GetSequence([]byte(CommentSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to lease comment sequence: %w", err)
	}
	return &BadgerCommentRepository{db: db, seq: seq}, nil
}

// Create appends a comment. The repository stamps CreatedAt so that timestamps never go
// backwards relative to key order.
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to get next comment sequence: %w", err)
	}
	now := time.Now().UTC()
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}

	stored := *comment
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = now
	err = r.db.Update(func(txn *badger.Txn) error {
		return setEntity(txn, commentKey(stored.PostID, n), &stored)
	})
	if err != nil {
		return err
	}
	r.last = now
	*comment = stored
	return nil
}

// Each streams a post's comments in creation order
func (r *BadgerCommentRepository) Each(postID string, fn func(*models.Comment) bool) error {
	return r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(CommentKeyPrefix + postID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			if !fn(&comment) {
				return nil
			}
		}
		return nil
	})
}

// Close returns the unused part of the sequence lease
func (r *BadgerCommentRepository) Close() error {
	return r.seq.Release()
}
