package repositories

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Repository owns the badger database and the repositories built on it.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	isTestDB bool

	Posts         *BadgerPostRepository
	Claims        *BadgerClaimRepository
	Transitions   *BadgerTransitionRepository
	Comments      *BadgerCommentRepository
	Likes         *BadgerLikeRepository
	Notifications *BadgerNotificationRepository
}

// NewRepository opens the database at path. An empty path or "test_db" opens a fresh
// temporary database that is removed on Close.
func NewRepository(path string, logger *zap.Logger) (*Repository, error) {
	isTest := false
	if path == "" || path == "test_db" {
		tempPath, err := os.MkdirTemp("", "lostfound_test_db_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(path).
		WithLogger(newBadgerLogger(logger)).
		WithNumVersionsToKeep(1)
	if isTest {
		opts = opts.WithSyncWrites(false).WithNumGoroutines(1)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return newRepository(db, path, isTest)
}

func newRepository(db *badger.DB, path string, isTest bool) (*Repository, error) {
	comments, err := NewBadgerCommentRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	notifications, err := NewBadgerNotificationRepository(db)
	if err != nil {
		comments.Close()
		db.Close()
		return nil, err
	}
	return &Repository{
		db:            db,
		dbPath:        path,
		isTestDB:      isTest,
		Posts:         NewBadgerPostRepository(db),
		Claims:        NewBadgerClaimRepository(db),
		Transitions:   NewBadgerTransitionRepository(db),
		Comments:      comments,
		Likes:         NewBadgerLikeRepository(db),
		Notifications: notifications,
	}, nil
}

// DB exposes the underlying handle for maintenance commands.
func (r *Repository) DB() *badger.DB {
	return r.db
}

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	err := errors.Join(
		r.Comments.Close(),
		r.Notifications.Close(),
		r.db.Close(),
	)
	if err != nil {
		return err
	}

	// Clean up test database
	if r.isTestDB {
		if err := os.RemoveAll(r.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test database: %w", err)
		}
	}
	return nil
}

// Backup writes a full backup to w and returns the version it covers.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.db.Backup(w, 0)
}

// Load restores a backup produced by Backup.
func (r *Repository) Load(rd io.Reader) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.Load(rd, 16)
}

// Clear drops every key. Sequences continue from their leased position.
func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}
