/*
Package catalog keeps a record of which payloads were hidden in which
images.

The catalog is a SQLite database keyed by the SHA-1 of the written image
file. It is purely informational; nothing in an image depends on it.
*/
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

// Entry describes a single injection
type Entry struct {
	ImageSHA1   string
	Image       string
	Name        string
	Size        int64
	PayloadSHA1 string
	Compressed  bool
	Created     time.Time
}

// Catalog is a handle to the database
type Catalog struct {
	db *sql.DB
}

// Open opens, creating if necessary, the catalog in file
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS injection (id INTEGER PRIMARY KEY NOT NULL, image_sha1 TEXT NOT NULL UNIQUE, image TEXT NOT NULL, name TEXT NOT NULL, size INTEGER NOT NULL, payload_sha1 TEXT NOT NULL, compressed INTEGER NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores e, replacing any existing entry for the same image
func (c *Catalog) Record(e Entry) error {
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	if _, err := c.db.Exec("INSERT OR REPLACE INTO injection (image_sha1, image, name, size, payload_sha1, compressed, created) VALUES (?, ?, ?, ?, ?, ?, ?)", e.ImageSHA1, e.Image, e.Name, e.Size, e.PayloadSHA1, e.Compressed, e.Created.Unix()); err != nil {
		return fmt.Errorf("catalog: recording %s: %w", e.Image, err)
	}
	return nil
}

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	var e Entry
	var created int64
	if err := row.Scan(&e.ImageSHA1, &e.Image, &e.Name, &e.Size, &e.PayloadSHA1, &e.Compressed, &created); err != nil {
		return nil, err
	}
	e.Created = time.Unix(created, 0)
	return &e, nil
}

// Find returns the entry for the image with the given SHA-1, or nil if
// there isn't one
func (c *Catalog) Find(imageSHA1 string) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRow("SELECT image_sha1, image, name, size, payload_sha1, compressed, created FROM injection WHERE image_sha1 = ?", imageSHA1))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// List returns every entry, oldest first
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT image_sha1, image, name, size, payload_sha1, compressed, created FROM injection ORDER BY created, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}
