package repositories

import (
	"bytes"
	"fmt"
	"slices"
	"sort"

	"lostfound/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerClaimRepository implements ClaimRepository using BadgerDB
type BadgerClaimRepository struct {
	db *badger.DB
}

// NewBadgerClaimRepository creates a new BadgerClaimRepository
func NewBadgerClaimRepository(db *badger.DB) *BadgerClaimRepository {
	return &BadgerClaimRepository{db: db}
}

// GetByID retrieves a claim by ID
func (r *BadgerClaimRepository) GetByID(id string) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, claimKey(id), &claim)
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListByPost returns every claim ever filed against a post, oldest first
func (r *BadgerClaimRepository) ListByPost(postID string) ([]*models.Claim, error) {
	var claims []*models.Claim
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(ClaimByPostPrefix + postID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			claimID := bytes.TrimPrefix(it.Item().Key(), prefix)
			var claim models.Claim
			if err := getEntity(txn, claimKey(string(claimID)), &claim); err != nil {
				return err
			}
			claims = append(claims, &claim)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortOldestFirst(claims)
	return claims, nil
}

// ListByStatus returns claims in any of the given statuses, oldest first
func (r *BadgerClaimRepository) ListByStatus(statuses ...models.ClaimStatus) ([]*models.Claim, error) {
	return r.scan(func(c *models.Claim) bool {
		return slices.Contains(statuses, c.Status)
	})
}

// ListByClaimant returns the claims a user has filed, oldest first
func (r *BadgerClaimRepository) ListByClaimant(claimantID string) ([]*models.Claim, error) {
	return r.scan(func(c *models.Claim) bool {
		return c.ClaimantID == claimantID
	})
}

func (r *BadgerClaimRepository) scan(keep func(*models.Claim) bool) ([]*models.Claim, error) {
	var claims []*models.Claim
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(ClaimKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var claim models.Claim
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &claim)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal claim: %w", err)
			}
			if keep(&claim) {
				claims = append(claims, &claim)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortOldestFirst(claims)
	return claims, nil
}

func sortOldestFirst(claims []*models.Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return claims[i].ID < claims[j].ID
		}
		return claims[i].CreatedAt.Before(claims[j].CreatedAt)
	})
}
