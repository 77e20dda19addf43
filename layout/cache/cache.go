// Package cache is a CLI-level convenience the core pipeline itself has
// no use for: a SQLite-backed store, keyed by document content hash, that
// persists the font-prior histogram and per-stage timings a run produced
// so a later invocation over the same or a similar corpus can skip
// re-fitting the body-font prior from scratch.
//
// The shape — a content-hash-addressed SQLite store with a vec0 virtual
// table for similarity lookup — exists to find documents with a
// near-identical font profile (same template, same house style) so their
// fitted default_font_size can be reused without re-running the heading
// stage's histogram fit.
package cache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bbiangul/goreason-layout/layout"
)

func init() {
	sqlite_vec.Auto()
}

// bucketCount fixes the embedding dimension: font sizes from 0 to 32pt in
// 0.5pt buckets, which is enough resolution to distinguish body/heading
// font prior shapes without needing a learned embedding.
const bucketCount = 64

// Profile is one cached run's font-prior summary.
type Profile struct {
	ContentHash     string
	Path            string
	DefaultFontSize float64
	Performance     map[string]int64
	UpdatedAt       time.Time
}

// Match is a nearest-neighbour lookup result.
type Match struct {
	Profile
	Distance float64
}

// Cache wraps the SQLite database.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) a cache database at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Cache{db: db}, nil
}

// Close closes the underlying connection.
func (c *Cache) Close() error { return c.db.Close() }

func schemaSQL() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS profiles (
    content_hash TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    default_font_size REAL NOT NULL,
    performance JSON,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profile_ids (
    rowid INTEGER PRIMARY KEY,
    content_hash TEXT NOT NULL UNIQUE
);

CREATE VIRTUAL TABLE IF NOT EXISTS profile_vectors USING vec0(
    embedding float[%d]
);
`, bucketCount)
}

// Put records a run's fitted font prior under contentHash, replacing any
// prior entry for the same hash.
func (c *Cache) Put(ctx context.Context, contentHash, path string, defaultFontSize float64, stats *layout.FontStatistics, perf map[string]int64) error {
	perfJSON, err := json.Marshal(perf)
	if err != nil {
		return fmt.Errorf("cache: marshalling performance: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (content_hash, path, default_font_size, performance, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(content_hash) DO UPDATE SET
			path=excluded.path, default_font_size=excluded.default_font_size,
			performance=excluded.performance, updated_at=CURRENT_TIMESTAMP
	`, contentHash, path, defaultFontSize, string(perfJSON)); err != nil {
		return fmt.Errorf("cache: upserting profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO profile_ids (content_hash) VALUES (?)`, contentHash); err != nil {
		return fmt.Errorf("cache: reserving profile id: %w", err)
	}
	var rowid int64
	if err := tx.QueryRowContext(ctx,
		`SELECT rowid FROM profile_ids WHERE content_hash = ?`, contentHash).Scan(&rowid); err != nil {
		return fmt.Errorf("cache: resolving profile id: %w", err)
	}

	vec := embedHistogram(stats)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO profile_vectors (rowid, embedding) VALUES (?, ?)`,
		rowid, serializeFloat32(vec)); err != nil {
		return fmt.Errorf("cache: storing profile vector: %w", err)
	}

	return tx.Commit()
}

// GetDefaultFontSize looks up a previously cached exact-hash match.
func (c *Cache) GetDefaultFontSize(ctx context.Context, contentHash string) (float64, bool, error) {
	var size float64
	err := c.db.QueryRowContext(ctx,
		`SELECT default_font_size FROM profiles WHERE content_hash = ?`, contentHash).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache: looking up profile: %w", err)
	}
	return size, true, nil
}

// Nearest returns the k cached profiles whose font-size histogram is
// closest (by L2 distance over the bucketed embedding) to stats, letting
// a caller reuse a near-identical template's fitted body size instead of
// refitting from a thin per-document sample.
func (c *Cache) Nearest(ctx context.Context, stats *layout.FontStatistics, k int) ([]Match, error) {
	if k <= 0 {
		k = 5
	}
	vec := embedHistogram(stats)
	rows, err := c.db.QueryContext(ctx, `
		SELECT p.content_hash, p.path, p.default_font_size, p.performance, p.updated_at, v.distance
		FROM profile_vectors v
		JOIN profile_ids i ON i.rowid = v.rowid
		JOIN profiles p ON p.content_hash = i.content_hash
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(vec), k)
	if err != nil {
		return nil, fmt.Errorf("cache: nearest-neighbour query: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var perfJSON string
		var updated time.Time
		if err := rows.Scan(&m.ContentHash, &m.Path, &m.DefaultFontSize, &perfJSON, &updated, &m.Distance); err != nil {
			return nil, fmt.Errorf("cache: scanning match: %w", err)
		}
		m.UpdatedAt = updated
		_ = json.Unmarshal([]byte(perfJSON), &m.Performance)
		out = append(out, m)
	}
	return out, rows.Err()
}

// embedHistogram collapses a document-wide FontStatistics into a fixed-
// length, L2-normalised vector: bucket[i] accumulates occurrence counts
// for integer-tenths sizes falling in 0.5pt-wide bands, summed across
// every family. This is a coarse fingerprint of a document's font-size
// distribution, not a learned embedding, but it is enough to cluster
// "same template" documents for the cache's nearest-neighbour lookup.
func embedHistogram(stats *layout.FontStatistics) []float32 {
	vec := make([]float32, bucketCount)
	if stats == nil {
		return vec
	}
	for _, fam := range stats.Families {
		for tenths, count := range fam.Sizes {
			bucket := (tenths / 5)
			if bucket < 0 {
				bucket = 0
			}
			if bucket >= bucketCount {
				bucket = bucketCount - 1
			}
			vec[bucket] += float32(count)
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm <= 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}

func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
