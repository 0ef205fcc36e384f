package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lostfound/app/config"
	"lostfound/app/models"
	"lostfound/app/repositories"
	"lostfound/app/session"

	"go.uber.org/zap"
)

// ErrCancelled is returned when the operator declines a destructive prompt.
var ErrCancelled = errors.New("operation cancelled")

// Commands implements the database maintenance subcommands.
type Commands struct {
	cfg    *config.Config
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
	now    func() time.Time
}

// NewCommands reads confirmations from in and reports progress to out.
func NewCommands(cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{
		cfg:    cfg,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Commands) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// confirm asks a yes/no question. Anything but y or Y is a no.
func (c *Commands) confirm(question string) bool {
	c.printf("%s [y/N] ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Init creates a new empty database.
func (c *Commands) Init() error {
	if exists(c.cfg.DatabasePath) {
		c.printf("Database already exists. Use 'clean' first if you want to reinitialize.\n")
		return nil
	}
	if err := os.MkdirAll(c.cfg.DatabasePath, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := repositories.NewRepository(c.cfg.DatabasePath, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := repo.Close(); err != nil {
		return err
	}

	c.printf("Database initialized at %s\n", c.cfg.DatabasePath)
	return nil
}

// Clean removes the database and search index. Without force the operator must confirm.
func (c *Commands) Clean(force bool) error {
	if !exists(c.cfg.DatabasePath) && !exists(c.cfg.SearchIndexPath) {
		c.printf("Database is already clean (does not exist)\n")
		return nil
	}
	if !force && !c.confirm("Are you sure you want to clean the database? This cannot be undone.") {
		return ErrCancelled
	}

	if err := os.RemoveAll(c.cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	if c.cfg.SearchIndexPath != "" {
		if err := os.RemoveAll(c.cfg.SearchIndexPath); err != nil {
			return fmt.Errorf("failed to clean search index: %w", err)
		}
	}
	c.printf("Database cleaned successfully\n")
	return nil
}

// Backup writes a full badger backup into the backup directory and returns its path.
func (c *Commands) Backup() (string, error) {
	if !exists(c.cfg.DatabasePath) {
		return "", fmt.Errorf("no database exists at %s", c.cfg.DatabasePath)
	}
	if err := os.MkdirAll(c.cfg.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	repo, err := repositories.NewRepository(c.cfg.DatabasePath, c.logger)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	backupFile := filepath.Join(c.cfg.BackupDir, fmt.Sprintf("backup_%d.db", c.now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	version, err := repo.Backup(f)
	if err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to flush backup: %w", err)
	}

	c.logger.Info("backup written", zap.String("file", backupFile), zap.Uint64("version", version))
	c.printf("Database backed up successfully to %s\n", backupFile)
	return backupFile, nil
}

// Restore replaces the database with the contents of backupFile. The search index is
// removed and rebuilt on the next serve.
func (c *Commands) Restore(backupFile string, force bool) (err error) {
	fi, err := os.Stat(backupFile)
	if err != nil {
		return fmt.Errorf("backup file does not exist: %s", backupFile)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	if exists(c.cfg.DatabasePath) {
		if !force && !c.confirm("Existing database found. Do you want to replace it?") {
			return ErrCancelled
		}
		if err := os.RemoveAll(c.cfg.DatabasePath); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if c.cfg.SearchIndexPath != "" {
		if err := os.RemoveAll(c.cfg.SearchIndexPath); err != nil {
			return fmt.Errorf("failed to remove search index: %w", err)
		}
	}
	if err := os.MkdirAll(c.cfg.DatabasePath, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := repositories.NewRepository(c.cfg.DatabasePath, c.logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred during restore: %v", r)
		}
	}()
	if err := repo.Load(f); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}

	c.printf("Database restored successfully\n")
	return nil
}

// Token issues a bearer token for a user, for operators and local testing.
func (c *Commands) Token(userID string, role models.Role) (string, error) {
	issuer, err := session.NewIssuer([]byte(c.cfg.SessionSecret), c.cfg.SessionTTL)
	if err != nil {
		return "", err
	}
	return issuer.Issue(userID, role)
}
