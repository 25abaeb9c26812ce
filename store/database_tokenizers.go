// database_tokenizers.go - tokenizer and merge CRUD

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/model"
)

type tokenizerRow struct {
	Entry
	shuffle []byte
}

func (db *database) saveTokenizer(ctx context.Context, e Entry, m model.Model) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// merges of a replaced tokenizer go with it through the cascade
	if _, err := tx.ExecContext(ctx, "DELETE FROM tokenizers WHERE name = ?", e.Name); err != nil {
		return fmt.Errorf("delete tokenizer: %w", err)
	}

	var shuffle any
	if m.Shuffle != nil {
		shuffle = m.Shuffle[:]
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tokenizers (id, name, kind, pattern, digest, byte_shuffle, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Kind, e.Pattern, e.Digest, shuffle, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tokenizer: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO merges (tokenizer_id, first, second, id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare merges: %w", err)
	}
	defer stmt.Close()

	for _, rule := range m.Merges {
		if _, err := stmt.ExecContext(ctx, e.ID, rule.First, rule.Second, rule.ID); err != nil {
			return fmt.Errorf("insert merge %s: %w", rule, err)
		}
	}

	return tx.Commit()
}

func (db *database) getTokenizer(ctx context.Context, name string) (*tokenizerRow, error) {
	var row tokenizerRow
	err := db.conn.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.kind, t.pattern, t.digest, t.byte_shuffle, t.created_at,
			(SELECT COUNT(*) FROM merges m WHERE m.tokenizer_id = t.id)
		FROM tokenizers t
		WHERE t.name = ?
	`, name).Scan(&row.ID, &row.Name, &row.Kind, &row.Pattern, &row.Digest, &row.shuffle, &row.CreatedAt, &row.Merges)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}

	return &row, nil
}

func (db *database) getMerges(ctx context.Context, tokenizerID string) ([]bpe.MergeRule, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT first, second, id FROM merges WHERE tokenizer_id = ? ORDER BY id", tokenizerID)
	if err != nil {
		return nil, fmt.Errorf("query merges: %w", err)
	}
	defer rows.Close()

	var merges []bpe.MergeRule
	for rows.Next() {
		var rule bpe.MergeRule
		if err := rows.Scan(&rule.First, &rule.Second, &rule.ID); err != nil {
			return nil, fmt.Errorf("scan merge: %w", err)
		}
		merges = append(merges, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merges: %w", err)
	}

	return merges, nil
}

func (db *database) listTokenizers(ctx context.Context) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.kind, t.pattern, t.digest, t.created_at, COUNT(m.id)
		FROM tokenizers t
		LEFT JOIN merges m ON m.tokenizer_id = t.id
		GROUP BY t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tokenizers: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Name, &e.Kind, &e.Pattern, &e.Digest, &createdAt, &e.Merges); err != nil {
			return nil, fmt.Errorf("scan tokenizer: %w", err)
		}
		e.CreatedAt = createdAt
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokenizers: %w", err)
	}

	return entries, nil
}

func (db *database) deleteTokenizer(ctx context.Context, name string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM tokenizers WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete tokenizer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tokenizer: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}
