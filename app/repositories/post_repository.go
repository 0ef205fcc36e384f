package repositories

import (
	"fmt"
	"sort"
	"time"

	"lostfound/app/apperr"
	"lostfound/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create stores a new post and assigns its ID
func (r *BadgerPostRepository) Create(post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(post.ID)
		if _, err := txn.Get(key); err == nil {
			return apperr.Conflict("createPost", "post %s already exists", post.ID)
		}
		return setEntity(txn, key, post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns matching posts, newest first, windowed by the filter's page settings
func (r *BadgerPostRepository) List(filter models.PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			if filter.Match(&post) {
				posts = append(posts, &post)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	start, end := filter.Window(len(posts))
	return posts[start:end], nil
}

// TransitionStatus moves a post from expected to next in one transaction
func (r *BadgerPostRepository) TransitionStatus(id string, next, expected models.PostStatus) (*models.Post, error) {
	var post models.Post
	err := r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}
		if post.Status != expected {
			return apperr.Conflict("transitionStatus", "post %s is %s, expected %s", id, post.Status, expected)
		}
		post.Status = next
		post.UpdatedAt = time.Now().UTC()
		return setEntity(txn, key, &post)
	})
	if err != nil {
		return nil, txnError("transitionStatus", err)
	}
	return &post, nil
}

func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
