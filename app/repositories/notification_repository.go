package repositories

import (
	"fmt"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerNotificationRepository implements NotificationRepository using BadgerDB
type BadgerNotificationRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerNotificationRepository creates a new BadgerNotificationRepository
func NewBadgerNotificationRepository(db *badger.DB) (*BadgerNotificationRepository, error) {
	seq, err := db.GetSequence([]byte(NotificationSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to lease notification sequence: %w", err)
	}
	return &BadgerNotificationRepository{db: db, seq: seq}, nil
}

// Create stores a notification in the recipient's inbox
func (r *BadgerNotificationRepository) Create(n *models.Notification) error {
	seq, err := r.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to get next notification sequence: %w", err)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return setEntity(txn, notificationKey(n.RecipientID, seq), n)
	})
}

// ListByRecipient returns up to limit notifications, newest first
func (r *BadgerNotificationRepository) ListByRecipient(recipientID string, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(NotificationKeyPrefix + recipientID + ":")
		// Reverse iteration starts from the largest key at or below the seek key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var n models.Notification
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &n)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal notification: %w", err)
			}
			out = append(out, &n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags one of the recipient's notifications as read
func (r *BadgerNotificationRepository) MarkRead(recipientID, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, n, err := r.find(txn, recipientID, id)
		if err != nil {
			return err
		}
		n.Read = true
		return setEntity(txn, key, n)
	})
}

func (r *BadgerNotificationRepository) find(txn *badger.Txn, recipientID, id string) ([]byte, *models.Notification, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(NotificationKeyPrefix + recipientID + ":")
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var n models.Notification
		err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &n)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		if n.ID == id {
			return item.KeyCopy(nil), &n, nil
		}
	}
	return nil, nil, apperr.NotFound("markRead", "notification %s not found", id)
}

// Close returns the unused part of the sequence lease
func (r *BadgerNotificationRepository) Close() error {
	return r.seq.Release()
}
