package main

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// importCSV bulk-loads the reference dataset. Files are optional and loaded
// in dependency order; rows violating a constraint are logged and skipped so
// a partial dataset still imports.
func importCSV(db *sql.DB, log zerolog.Logger, dir string) error {
	loaders := []struct {
		file   string
		fields int
		insert func(tx *sql.Tx, rec []string) error
	}{
		{"category.csv", 3, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)`,
				rec[0], rec[1], rec[2])
			return err
		}},
		{"genre.csv", 3, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO genres (id, name, slug) VALUES (?, ?, ?)`,
				rec[0], rec[1], rec[2])
			return err
		}},
		{"titles.csv", 4, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO titles (id, name, year, category_id) VALUES (?, ?, ?, ?)`,
				rec[0], rec[1], rec[2], nullIfEmpty(rec[3]))
			return err
		}},
		{"genre_title.csv", 3, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?)`,
				rec[1], rec[2])
			return err
		}},
		{"users.csv", 7, func(tx *sql.Tx, rec []string) error {
			role := rec[3]
			if role == "" {
				role = RoleUser
			}
			_, err := tx.Exec(`INSERT INTO users (id, username, email, role, bio, confirmed) VALUES (?, ?, ?, ?, ?, 1)`,
				rec[0], rec[1], rec[2], role, rec[4])
			return err
		}},
		// datetime() normalizes the dataset's ISO-8601 stamps to the
		// storage format.
		{"review.csv", 6, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO reviews (id, title_id, text, author_id, score, created_at) VALUES (?, ?, ?, ?, ?, datetime(?))`,
				rec[0], rec[1], rec[2], rec[3], rec[4], rec[5])
			return err
		}},
		{"comments.csv", 5, func(tx *sql.Tx, rec []string) error {
			_, err := tx.Exec(`INSERT INTO comments (id, review_id, text, author_id, created_at) VALUES (?, ?, ?, ?, datetime(?))`,
				rec[0], rec[1], rec[2], rec[3], rec[4])
			return err
		}},
	}

	for _, l := range loaders {
		path := filepath.Join(dir, l.file)
		if err := importFile(db, log, path, l.fields, l.insert); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Info().Str("file", l.file).Msg("file not present, skipped")
				continue
			}
			return fmt.Errorf("import %s: %w", l.file, err)
		}
	}
	return nil
}

func importFile(db *sql.DB, log zerolog.Logger, path string, fields int, insert func(*sql.Tx, []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row is skipped; the column order is fixed per file.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read header: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var loaded, skipped int
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn().Str("file", path).Int("line", line).Err(err).Msg("malformed row skipped")
			skipped++
			continue
		}
		if len(rec) < fields {
			log.Warn().Str("file", path).Int("line", line).Msg("short row skipped")
			skipped++
			continue
		}
		if err := insert(tx, rec); err != nil {
			log.Warn().Str("file", path).Int("line", line).Err(err).Msg("row rejected")
			skipped++
			continue
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("loaded", loaded).Int("skipped", skipped).Msg("file imported")
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
