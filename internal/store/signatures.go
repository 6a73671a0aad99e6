package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kenafu/voice-dataset-organizer/internal/audiohash"
)

// Lookup returns the cached signature for a file identity. A row whose
// recorded size or mtime differs from the file's current identity is a
// miss; the next Store call overwrites it.
func (s *Store) Lookup(ctx context.Context, path string, size, mtimeNS int64, paramsKey string) (audiohash.Signature, bool, error) {
	var (
		cachedSize  int64
		cachedMtime int64
		hash        string
		envelope    []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT size, mtime_ns, hash, envelope FROM signatures WHERE path = ? AND params_key = ?",
		path, paramsKey,
	).Scan(&cachedSize, &cachedMtime, &hash, &envelope)
	if errors.Is(err, sql.ErrNoRows) {
		return audiohash.Signature{}, false, nil
	}
	if err != nil {
		return audiohash.Signature{}, false, fmt.Errorf("lookup signature: %w", err)
	}
	if cachedSize != size || cachedMtime != mtimeNS {
		return audiohash.Signature{}, false, nil
	}

	env, err := audiohash.UnmarshalEnvelope(envelope)
	if err != nil {
		return audiohash.Signature{}, false, fmt.Errorf("decode cached envelope: %w", err)
	}
	return audiohash.Signature{Hash: hash, Envelope: env}, true, nil
}

// Store upserts a signature for a file identity.
func (s *Store) Store(ctx context.Context, path string, size, mtimeNS int64, paramsKey string, sig audiohash.Signature) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signatures (path, params_key, size, mtime_ns, hash, envelope, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (path, params_key) DO UPDATE SET
             size = excluded.size,
             mtime_ns = excluded.mtime_ns,
             hash = excluded.hash,
             envelope = excluded.envelope,
             updated_at = excluded.updated_at`,
		path, paramsKey, size, mtimeNS, sig.Hash,
		audiohash.MarshalEnvelope(sig.Envelope),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store signature: %w", err)
	}
	return nil
}

// PruneSignatures drops cache rows whose path no longer exists in the
// given set of known paths.
func (s *Store) PruneSignatures(ctx context.Context, known map[string]bool) (int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT path FROM signatures")
	if err != nil {
		return 0, fmt.Errorf("list cached paths: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return 0, fmt.Errorf("scan cached path: %w", err)
		}
		if !known[path] {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate cached paths: %w", err)
	}

	var pruned int64
	for _, path := range stale {
		res, err := s.db.ExecContext(ctx, "DELETE FROM signatures WHERE path = ?", path)
		if err != nil {
			return pruned, fmt.Errorf("prune signature %s: %w", path, err)
		}
		n, _ := res.RowsAffected()
		pruned += n
	}
	return pruned, nil
}
