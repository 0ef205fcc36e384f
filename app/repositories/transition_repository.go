package repositories

import (
	"errors"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerTransitionRepository commits post and claim writes in a single badger transaction.
// Badger's serializable snapshot isolation turns a concurrent write to the same keys into
// badger.ErrConflict at commit, which is reported as a conflict like any stale expectation.
type BadgerTransitionRepository struct {
	db *badger.DB
}

// NewBadgerTransitionRepository creates a new BadgerTransitionRepository
func NewBadgerTransitionRepository(db *badger.DB) *BadgerTransitionRepository {
	return &BadgerTransitionRepository{db: db}
}

// Commit applies change atomically or not at all
func (r *BadgerTransitionRepository) Commit(change Change) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if change.Post != nil {
			key := postKey(change.Post.ID)
			var stored models.Post
			if err := getEntity(txn, key, &stored); err != nil {
				return err
			}
			if stored.Status != change.ExpectedPost {
				return apperr.Conflict("commit", "post %s is %s, expected %s",
					stored.ID, stored.Status, change.ExpectedPost)
			}
			if err := setEntity(txn, key, change.Post); err != nil {
				return err
			}
		}

		for _, w := range change.Claims {
			key := claimKey(w.Claim.ID)
			if w.Expected == "" {
				_, err := txn.Get(key)
				if err == nil {
					return apperr.Conflict("commit", "claim %s already exists", w.Claim.ID)
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
				if err := txn.Set(claimByPostKey(w.Claim.PostID, w.Claim.ID), []byte{}); err != nil {
					return err
				}
			} else {
				var stored models.Claim
				if err := getEntity(txn, key, &stored); err != nil {
					return err
				}
				if stored.Status != w.Expected {
					return apperr.Conflict("commit", "claim %s is %s, expected %s",
						stored.ID, stored.Status, w.Expected)
				}
			}
			if err := setEntity(txn, key, w.Claim); err != nil {
				return err
			}
		}
		return nil
	})
	return txnError("commit", err)
}
