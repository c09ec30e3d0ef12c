package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no entry has the key.
var ErrNotFound = errors.New("archive not found")

// Entry is one cached archive.
type Entry struct {
	Key           string
	Unit          string
	Fingerprint   string
	FormatVersion int
	Dialect       string
	ToolVersion   string
	Data          []byte
	Manifest      Manifest

	// Seq is the logical write counter at the entry's last Put.
	Seq int64
	// Size is len(Data). List fills it without loading Data.
	Size int
}

// Put stores e, replacing any entry with the same key. Seq is assigned by
// the store.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.Key == "" {
		return errors.New("put archive: empty key")
	}
	manifest, err := MarshalManifest(e.Manifest)
	if err != nil {
		return fmt.Errorf("put archive: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO archives
		(key, unit, fingerprint, format_version, dialect, tool_version, data, manifest, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM archives))
		ON CONFLICT(key) DO UPDATE SET
			unit = excluded.unit,
			fingerprint = excluded.fingerprint,
			format_version = excluded.format_version,
			dialect = excluded.dialect,
			tool_version = excluded.tool_version,
			data = excluded.data,
			manifest = excluded.manifest,
			seq = excluded.seq
	`,
		e.Key,
		e.Unit,
		e.Fingerprint,
		e.FormatVersion,
		e.Dialect,
		e.ToolVersion,
		e.Data,
		manifest,
	)
	if err != nil {
		return fmt.Errorf("put archive: %w", err)
	}
	return nil
}

// Get returns the entry stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, unit, fingerprint, format_version, dialect, tool_version, data, manifest, seq
		FROM archives
		WHERE key = ?
	`, key)

	var (
		e        Entry
		manifest []byte
	)
	err := row.Scan(&e.Key, &e.Unit, &e.Fingerprint, &e.FormatVersion, &e.Dialect, &e.ToolVersion, &e.Data, &manifest, &e.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get archive %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get archive %s: %w", key, err)
	}
	if e.Manifest, err = UnmarshalManifest(manifest); err != nil {
		return nil, fmt.Errorf("get archive %s: %w", key, err)
	}
	e.Size = len(e.Data)
	return &e, nil
}

// List returns every entry ordered by key, without Data.
//
// Returns an empty slice (not nil) when the cache is empty.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, unit, fingerprint, format_version, dialect, tool_version, length(data), manifest, seq
		FROM archives
		ORDER BY key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			manifest []byte
		)
		if err := rows.Scan(&e.Key, &e.Unit, &e.Fingerprint, &e.FormatVersion, &e.Dialect, &e.ToolVersion, &e.Size, &manifest, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		if e.Manifest, err = UnmarshalManifest(manifest); err != nil {
			return nil, fmt.Errorf("archive %s: %w", e.Key, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}
	return entries, nil
}

// Delete removes the entry stored under key. It reports whether an entry
// was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM archives WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete archive %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete archive %s: %w", key, err)
	}
	return n > 0, nil
}

// Prune removes every entry written with a format version other than
// current, and returns how many were removed.
func (s *Store) Prune(ctx context.Context, current int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM archives WHERE format_version != ?`, current)
	if err != nil {
		return 0, fmt.Errorf("prune archives: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune archives: %w", err)
	}
	return n, nil
}
