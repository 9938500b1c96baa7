package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// WordRepository persists custom words so they survive restarts.
type WordRepository interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, word string) error
}

type wordRepo struct {
	db *sqlx.DB
}

func NewWordRepository(db *sqlx.DB) WordRepository {
	return &wordRepo{db: db}
}

func (r *wordRepo) List(ctx context.Context) ([]string, error) {
	var words []string
	err := r.db.SelectContext(ctx, &words, `
		SELECT word FROM words
		ORDER BY id
	`)
	return words, err
}

func (r *wordRepo) Add(ctx context.Context, word string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO words (word)
		VALUES ($1)
		ON CONFLICT (word) DO NOTHING
	`, word)
	return err
}

// fileWordRepo keeps one word per line in a plain text file.
type fileWordRepo struct {
	path string
	mu   sync.Mutex
}

func NewFileWordRepository(path string) WordRepository {
	return &fileWordRepo{path: path}
}

func (r *fileWordRepo) List(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open word file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			words = append(words, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word file: %w", err)
	}
	return words, nil
}

func (r *fileWordRepo) Add(_ context.Context, word string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open word file: %w", err)
	}
	if _, err := f.WriteString(word + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append word: %w", err)
	}
	return f.Close()
}
