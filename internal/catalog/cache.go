package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/llehouerou/chime/internal/db"
)

// Cache is a local sqlite copy of the last successfully fetched catalog.
// It is read only when the remote fetch fails.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if needed) the catalog cache at path.
// Use ":memory:" for tests.
func OpenCache(path string) (*Cache, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog cache: %w", err)
	}

	_, err = sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS catalog_items (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			genre TEXT,
			media_uri TEXT,
			artwork_uri TEXT,
			track_number INTEGER,
			track_count INTEGER,
			duration_ms INTEGER
		)
	`)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init catalog cache: %w", err)
	}

	return &Cache{db: sqlDB}, nil
}

// Save replaces the cached catalog wholesale, preserving catalog order.
func (c *Cache) Save(items []Item) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM catalog_items`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO catalog_items
			(position, id, title, artist, album, genre, media_uri, artwork_uri,
			 track_number, track_count, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, it := range items {
			_, err := stmt.Exec(i, it.ID, it.Title, it.Artist, it.Album, it.Genre,
				it.MediaURI, it.ArtworkURI, it.TrackNumber, it.TrackCount,
				it.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the cached catalog in its original order.
func (c *Cache) Load() ([]Item, error) {
	rows, err := c.db.Query(`
		SELECT id, title, artist, album, genre, media_uri, artwork_uri,
		       track_number, track_count, duration_ms
		FROM catalog_items ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var artist, album, genre, mediaURI, artworkURI sql.NullString
		var durationMs int64
		if err := rows.Scan(&it.ID, &it.Title, &artist, &album, &genre,
			&mediaURI, &artworkURI, &it.TrackNumber, &it.TrackCount, &durationMs); err != nil {
			return nil, err
		}
		it.Artist = db.NullStringValue(artist)
		it.Album = db.NullStringValue(album)
		it.Genre = db.NullStringValue(genre)
		it.MediaURI = db.NullStringValue(mediaURI)
		it.ArtworkURI = db.NullStringValue(artworkURI)
		it.Duration = time.Duration(durationMs) * time.Millisecond
		it.Flags = FlagPlayable
		items = append(items, it)
	}
	return items, rows.Err()
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
