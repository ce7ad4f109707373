package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/crateview/crateview-backend/internal/domain/personalization"
)

// DAO implements personalization.Store on top of the SQLite database.
type DAO struct {
	db *DB
}

// NewDAO creates a DAO instance.
func NewDAO(db *DB) *DAO {
	return &DAO{db: db}
}

// PutHeart inserts or replaces a hearted entry.
func (dao *DAO) PutHeart(key string, heart personalization.Heart) error {
	db := dao.db.DB()
	if db == nil {
		return fmt.Errorf("database not open")
	}

	_, err := db.Exec(`
		INSERT INTO hearts (key, artist, album, hearted_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET artist = ?, album = ?, hearted_at = ?
	`,
		key, heart.Artist, heart.Album, heart.HeartedAt.Format(time.RFC3339Nano),
		heart.Artist, heart.Album, heart.HeartedAt.Format(time.RFC3339Nano),
	)
	return err
}

// DeleteHeart removes a hearted entry and its timestamp with it.
func (dao *DAO) DeleteHeart(key string) error {
	db := dao.db.DB()
	if db == nil {
		return fmt.Errorf("database not open")
	}

	_, err := db.Exec(`DELETE FROM hearts WHERE key = ?`, key)
	return err
}

// ListHearts returns all hearted entries keyed by the normalized pair.
func (dao *DAO) ListHearts() (map[string]personalization.Heart, error) {
	db := dao.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(`SELECT key, artist, album, hearted_at FROM hearts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hearts := make(map[string]personalization.Heart)
	for rows.Next() {
		var key, artist, album, heartedAt string
		if err := rows.Scan(&key, &artist, &album, &heartedAt); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, heartedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid hearted_at for %s: %w", key, err)
		}
		hearts[key] = personalization.Heart{Artist: artist, Album: album, HeartedAt: ts}
	}
	return hearts, rows.Err()
}

// PutReveal records a reveal. Reveals are one-way; re-recording is a no-op.
func (dao *DAO) PutReveal(key string) error {
	db := dao.db.DB()
	if db == nil {
		return fmt.Errorf("database not open")
	}

	_, err := db.Exec(`
		INSERT INTO reveals (key, revealed_at) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, time.Now().Format(time.RFC3339Nano))
	return err
}

// ListReveals returns all revealed keys.
func (dao *DAO) ListReveals() ([]string, error) {
	db := dao.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(`SELECT key FROM reveals`)
	if err != nil {
		return nil, err
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

// GetNSFWFilter returns the persisted blur preference, defaulting to
// enabled when never set.
func (dao *DAO) GetNSFWFilter() (bool, error) {
	db := dao.db.DB()
	if db == nil {
		return false, fmt.Errorf("database not open")
	}

	var value string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'nsfw_filter'`).Scan(&value)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

// SetNSFWFilter persists the blur preference.
func (dao *DAO) SetNSFWFilter(enabled bool) error {
	db := dao.db.DB()
	if db == nil {
		return fmt.Errorf("database not open")
	}

	value := strconv.FormatBool(enabled)
	_, err := db.Exec(`
		INSERT INTO meta (key, value) VALUES ('nsfw_filter', ?)
		ON CONFLICT(key) DO UPDATE SET value = ?
	`, value, value)
	return err
}
