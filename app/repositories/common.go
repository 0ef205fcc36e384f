package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"lostfound/app/apperr"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix         = "post:"
	ClaimKeyPrefix        = "claim:"
	ClaimByPostPrefix     = "claimpost:"
	CommentKeyPrefix      = "comment:"
	LikeKeyPrefix         = "like:"
	NotificationKeyPrefix = "notif:"

	// Sequence keys for append-only logs
	CommentSeqKey      = "seq:comment"
	NotificationSeqKey = "seq:notification"

	seqBandwidth = 100
)

// ErrNotFound is returned when a record is absent.
var ErrNotFound = apperr.ErrNotFound

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

func claimKey(id string) []byte {
	return []byte(ClaimKeyPrefix + id)
}

func claimByPostKey(postID, claimID string) []byte {
	return []byte(ClaimByPostPrefix + postID + ":" + claimID)
}

func commentKey(postID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", CommentKeyPrefix, postID, seq))
}

func likeKey(postID, userID string) []byte {
	return []byte(LikeKeyPrefix + postID + ":" + userID)
}

func notificationKey(recipientID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", NotificationKeyPrefix, recipientID, seq))
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads key into entity
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.NotFound("get", "%s not found", key)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// txnError classifies badger's optimistic-concurrency failure as a conflict.
func txnError(op string, err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return apperr.Wrap(apperr.KindConflict, op, err)
	}
	return err
}
