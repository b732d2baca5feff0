package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
)

// ContentStore implements domain.ContentStore using SQLite. Each section is
// one row; blocks and settings are stored as JSON.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

const sectionColumns = `section_key, section_type, settings_json, blocks_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanSection(row scanner) (string, domain.SectionContent, error) {
	var (
		key                      string
		content                  domain.SectionContent
		settingsJSON, blocksJSON string
	)
	if err := row.Scan(&key, &content.Type, &settingsJSON, &blocksJSON); err != nil {
		return "", content, err
	}
	if err := json.Unmarshal([]byte(blocksJSON), &content.Blocks); err != nil {
		return "", content, fmt.Errorf("decode blocks of %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &content.Settings); err != nil {
		return "", content, fmt.Errorf("decode settings of %s: %w", key, err)
	}
	if len(content.Settings) == 0 {
		content.Settings = nil
	}
	return key, content, nil
}

func (s *ContentStore) LoadTree() (domain.ContentTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT source, ` + sectionColumns + ` FROM section_contents ORDER BY source, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	defer rows.Close()

	tree := domain.ContentTree{}
	for rows.Next() {
		var source string
		key, content, err := scanSection(rowWithSource{rows, &source})
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		src, ok := tree[source]
		if !ok {
			src = domain.SourceContent{SectionsContent: domain.SectionsContent{}}
		}
		src.SectionsContent[key] = content
		tree[source] = src
	}
	return tree, rows.Err()
}

// rowWithSource scans the leading source column before the section columns.
type rowWithSource struct {
	rows   *sql.Rows
	source *string
}

func (r rowWithSource) Scan(dest ...any) error {
	return r.rows.Scan(append([]any{r.source}, dest...)...)
}

func (s *ContentStore) GetSection(ref domain.SectionRef) (domain.SectionContent, error) {
	row := s.db.Conn().QueryRow(
		`SELECT `+sectionColumns+` FROM section_contents WHERE source = ? AND section_key = ?`,
		ref.Source, ref.Key,
	)
	_, content, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content, fmt.Errorf("section %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return content, fmt.Errorf("get section %s: %w", ref, err)
	}
	return content, nil
}

// SaveSection upserts the section. New sections are appended after the last
// section of their source.
func (s *ContentStore) SaveSection(ref domain.SectionRef, content domain.SectionContent) error {
	blocks := content.Blocks
	if blocks == nil {
		blocks = []domain.Block{}
	}
	blocksJSON, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("encode blocks: %w", err)
	}
	settings := content.Settings
	if settings == nil {
		settings = domain.Settings{}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO section_contents (source, section_key, section_type, position, settings_json, blocks_json, updated_at)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM section_contents WHERE source = ?), ?, ?, ?)
		 ON CONFLICT(source, section_key) DO UPDATE SET
			section_type = excluded.section_type,
			settings_json = excluded.settings_json,
			blocks_json = excluded.blocks_json,
			updated_at = excluded.updated_at`,
		ref.Source, ref.Key, content.Type, ref.Source, string(settingsJSON), string(blocksJSON), now(),
	)
	if err != nil {
		return fmt.Errorf("save section %s: %w", ref, err)
	}
	return nil
}

func (s *ContentStore) DeleteSection(ref domain.SectionRef) error {
	res, err := s.db.Conn().Exec(
		`DELETE FROM section_contents WHERE source = ? AND section_key = ?`, ref.Source, ref.Key,
	)
	if err != nil {
		return fmt.Errorf("delete section %s: %w", ref, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("section %s: %w", ref, domain.ErrNotFound)
	}
	return nil
}

func (s *ContentStore) ListSources() ([]string, error) {
	rows, err := s.db.Conn().Query(`SELECT DISTINCT source FROM section_contents ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *ContentStore) SectionOrder(source string) ([]string, error) {
	return sectionKeys(s.db.Conn(), source)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func sectionKeys(q queryer, source string) ([]string, error) {
	rows, err := q.Query(
		`SELECT section_key FROM section_contents WHERE source = ? ORDER BY position, section_key`, source,
	)
	if err != nil {
		return nil, fmt.Errorf("section order: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// MoveSection moves the section to newIndex, clamped to the section count,
// and renumbers the positions of its source.
func (s *ContentStore) MoveSection(ref domain.SectionRef, newIndex int) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keys, err := sectionKeys(tx, ref.Source)
	if err != nil {
		return err
	}
	from := -1
	for i, key := range keys {
		if key == ref.Key {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("section %s: %w", ref, domain.ErrNotFound)
	}

	keys = moveKey(keys, from, newIndex)
	movedAt := now()
	for i, key := range keys {
		if _, err := tx.Exec(
			`UPDATE section_contents SET position = ?, updated_at = ? WHERE source = ? AND section_key = ?`,
			i, movedAt, ref.Source, key,
		); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
	}
	return tx.Commit()
}

func moveKey(keys []string, from, to int) []string {
	if to < 0 {
		to = 0
	}
	if to >= len(keys) {
		to = len(keys) - 1
	}
	key := keys[from]
	keys = append(keys[:from], keys[from+1:]...)
	keys = append(keys[:to], append([]string{key}, keys[to:]...)...)
	return keys
}

// Fingerprint summarizes the sections of source (count, last update and key
// order). It changes whenever another process writes to the source.
func (s *ContentStore) Fingerprint(source string) (string, error) {
	var count int
	var last, order sql.NullString
	err := s.db.Conn().QueryRow(
		`SELECT COUNT(*), MAX(updated_at), GROUP_CONCAT(section_key, ',') FROM (
			SELECT section_key, updated_at FROM section_contents WHERE source = ? ORDER BY position
		)`, source,
	).Scan(&count, &last, &order)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", source, err)
	}
	return fmt.Sprintf("%d:%s:%s", count, last.String, order.String), nil
}
