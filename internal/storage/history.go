package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// Snapshot is a saved copy of a section taken before an edit.
type Snapshot struct {
	ID        int64                 `json:"id"`
	Ref       domain.SectionRef     `json:"ref"`
	Label     string                `json:"label"`
	Content   domain.SectionContent `json:"content"`
	CreatedAt time.Time             `json:"createdAt"`
}

// HistoryStore keeps a bounded undo stack per section in SQLite.
type HistoryStore struct {
	db    *DB
	limit int
}

// NewHistoryStore creates a store keeping at most limit snapshots per
// section. A limit of zero or less keeps everything.
func NewHistoryStore(db *DB, limit int) *HistoryStore {
	return &HistoryStore{db: db, limit: limit}
}

// Push saves content as the newest snapshot of ref.
func (s *HistoryStore) Push(ref domain.SectionRef, label string, content domain.SectionContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO section_history (source, section_key, label, content_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ref.Source, ref.Key, label, string(data), now(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if s.limit > 0 {
		if _, err := s.pruneRef(ref, s.limit); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes and returns the newest snapshot of ref.
func (s *HistoryStore) Pop(ref domain.SectionRef) (Snapshot, error) {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := Snapshot{Ref: ref}
	var data string
	err = tx.QueryRow(
		`SELECT id, label, content_json, created_at FROM section_history
		 WHERE source = ? AND section_key = ? ORDER BY id DESC LIMIT 1`,
		ref.Source, ref.Key,
	).Scan(&snap.ID, &snap.Label, &data, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("history of %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &snap.Content); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %d: %w", snap.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM section_history WHERE id = ?`, snap.ID); err != nil {
		return Snapshot{}, fmt.Errorf("delete snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

// Count returns the number of snapshots kept for ref.
func (s *HistoryStore) Count(ref domain.SectionRef) (int, error) {
	var n int
	err := s.db.Conn().QueryRow(
		`SELECT COUNT(*) FROM section_history WHERE source = ? AND section_key = ?`, ref.Source, ref.Key,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Clear removes every snapshot of ref.
func (s *HistoryStore) Clear(ref domain.SectionRef) error {
	_, err := s.db.Conn().Exec(
		`DELETE FROM section_history WHERE source = ? AND section_key = ?`, ref.Source, ref.Key,
	)
	return err
}

// Prune keeps the newest keep snapshots of every section and returns how many
// were removed.
func (s *HistoryStore) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Conn().Exec(
		`DELETE FROM section_history WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY source, section_key ORDER BY id DESC) AS rn
				FROM section_history
			) WHERE rn > ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// Limit returns the per-section snapshot limit.
func (s *HistoryStore) Limit() int { return s.limit }

func (s *HistoryStore) pruneRef(ref domain.SectionRef, keep int) (int64, error) {
	res, err := s.db.Conn().Exec(
		`DELETE FROM section_history WHERE source = ? AND section_key = ? AND id NOT IN (
			SELECT id FROM section_history WHERE source = ? AND section_key = ? ORDER BY id DESC LIMIT ?
		)`,
		ref.Source, ref.Key, ref.Source, ref.Key, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune history of %s: %w", ref, err)
	}
	return res.RowsAffected()
}
