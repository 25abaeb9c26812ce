// Package store keeps trained tokenizers by name in a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
	"github.com/ollama/minibpe/model"
)

var ErrNotFound = errors.New("tokenizer not found")

// Entry describes a stored tokenizer.
type Entry struct {
	ID        string
	Name      string
	Kind      string
	Pattern   string
	Digest    string
	Merges    int
	CreatedAt time.Time
}

type Store struct {
	// DBPath overrides envconfig.Store()
	DBPath string

	// dbMu guards initialization only
	dbMu sync.Mutex
	db   *database
}

// Open opens the database at path, creating it if needed. An empty path
// uses envconfig.Store().
func Open(path string) (*Store, error) {
	s := &Store{DBPath: path}
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureDB() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		return nil
	}

	dbPath := s.DBPath
	if dbPath == "" {
		dbPath = envconfig.Store()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	db, err := newDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	slog.Debug("opened tokenizer store", "path", dbPath)
	s.db = db
	return nil
}

// Save stores m under name, replacing any tokenizer already using it.
// The model is built first so that invalid merges are never stored.
func (s *Store) Save(ctx context.Context, name string, m model.Model) (Entry, error) {
	if name == "" {
		return Entry{}, errors.New("tokenizer name is required")
	}

	if _, err := model.New(m); err != nil {
		return Entry{}, err
	}

	if err := s.ensureDB(); err != nil {
		return Entry{}, err
	}

	merges := make([]bpe.MergeRule, len(m.Merges))
	copy(merges, m.Merges)
	bpe.SortMerges(merges)
	m.Merges = merges

	e := Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      m.EffectiveKind(),
		Pattern:   m.Pattern,
		Digest:    m.Digest(),
		Merges:    len(m.Merges),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.saveTokenizer(ctx, e, m); err != nil {
		return Entry{}, err
	}

	slog.Info("saved tokenizer", "name", name, "digest", e.Digest, "merges", e.Merges)
	return e, nil
}

// Load returns the tokenizer stored under name.
func (s *Store) Load(ctx context.Context, name string) (model.Model, error) {
	if err := s.ensureDB(); err != nil {
		return model.Model{}, err
	}

	row, err := s.db.getTokenizer(ctx, name)
	if err != nil {
		return model.Model{}, err
	}

	merges, err := s.db.getMerges(ctx, row.ID)
	if err != nil {
		return model.Model{}, err
	}

	m := model.Model{Kind: row.Kind, Pattern: row.Pattern, Merges: merges}
	if row.shuffle != nil {
		if len(row.shuffle) != bpe.NumBytes {
			return model.Model{}, fmt.Errorf("%w: %d entries stored for %s", bpe.ErrIncompleteShuffle, len(row.shuffle), name)
		}

		var shuffle bpe.ByteShuffle
		copy(shuffle[:], row.shuffle)
		m.Shuffle = &shuffle
	}

	return m, nil
}

// Get returns the entry for name without loading its merges.
func (s *Store) Get(ctx context.Context, name string) (Entry, error) {
	if err := s.ensureDB(); err != nil {
		return Entry{}, err
	}

	row, err := s.db.getTokenizer(ctx, name)
	if err != nil {
		return Entry{}, err
	}
	return row.Entry, nil
}

// List returns every stored tokenizer ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	return s.db.listTokenizers(ctx)
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	if err := s.db.deleteTokenizer(ctx, name); err != nil {
		return err
	}

	slog.Info("deleted tokenizer", "name", name)
	return nil
}

func (s *Store) Close() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
