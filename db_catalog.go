package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Categories and genres share their shape; the helpers are parameterized by
// table name the same way the review tables are validated elsewhere.

func validRefTable(table string) bool {
	return table == "categories" || table == "genres"
}

func dbListRef(db *sql.DB, table string) ([]Category, error) {
	if !validRefTable(table) {
		return nil, fmt.Errorf("invalid table: %s", table)
	}
	rows, err := db.Query(fmt.Sprintf(`SELECT id, name, slug FROM %s ORDER BY name`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func dbGetRefBySlug(db *sql.DB, table, slug string) (*Category, error) {
	if !validRefTable(table) {
		return nil, fmt.Errorf("invalid table: %s", table)
	}
	c := &Category{}
	err := db.QueryRow(fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE slug = ?`, table), slug).
		Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", strings.TrimSuffix(table, "s"), slug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func dbCreateRef(db *sql.DB, table string, c *Category) error {
	if !validRefTable(table) {
		return fmt.Errorf("invalid table: %s", table)
	}
	res, err := db.Exec(fmt.Sprintf(`INSERT INTO %s (name, slug) VALUES (?, ?)`, table), c.Name, c.Slug)
	if isUniqueErr(err, table+".slug") {
		return fieldError("slug", "this slug is already in use")
	}
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

// Deleting a category sets titles.category_id NULL; deleting a genre drops
// the join rows. Titles survive either way.
func dbDeleteRefBySlug(db *sql.DB, table, slug string) error {
	if !validRefTable(table) {
		return fmt.Errorf("invalid table: %s", table)
	}
	res, err := db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE slug = ?`, table), slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func dbSlugExists(db *sql.DB, table, slug string) (bool, error) {
	if !validRefTable(table) {
		return false, fmt.Errorf("invalid table: %s", table)
	}
	var count int
	err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE slug = ?`, table), slug).Scan(&count)
	return count > 0, err
}

// Titles

// TitleFilter narrows dbListTitles. Zero values mean "no filter".
type TitleFilter struct {
	Name     string // partial, case-insensitive
	Year     *int   // exact
	Category string // category slug
	Genre    string // genre slug
}

// The rating subquery recomputes the mean on every read, so a read right
// after a review write or delete observes the committed set.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.category_id,
	       (SELECT AVG(score) FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t`

func dbListTitles(db *sql.DB, f TitleFilter) ([]Title, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, `LOWER(t.name) LIKE '%' || LOWER(?) || '%'`)
		args = append(args, f.Name)
	}
	if f.Year != nil {
		where = append(where, `t.year = ?`)
		args = append(args, *f.Year)
	}
	if f.Category != "" {
		where = append(where, `t.category_id IN (SELECT id FROM categories WHERE slug = ?)`)
		args = append(args, f.Category)
	}
	if f.Genre != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = ?)`)
		args = append(args, f.Genre)
	}

	query := titleSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.name"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []Title
	for rows.Next() {
		t, catID, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		if err := loadTitleRefs(db, t, catID); err != nil {
			return nil, err
		}
		titles = append(titles, *t)
	}
	return titles, rows.Err()
}

func dbGetTitle(db *sql.DB, id int64) (*Title, error) {
	row := db.QueryRow(titleSelect+` WHERE t.id = ?`, id)
	t, catID, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("title %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := loadTitleRefs(db, t, catID); err != nil {
		return nil, err
	}
	return t, nil
}

func scanTitle(row interface{ Scan(...any) error }) (*Title, sql.NullInt64, error) {
	t := &Title{}
	var catID sql.NullInt64
	err := row.Scan(&t.ID, &t.Name, &t.Year, &t.Description, &catID, &t.Rating)
	return t, catID, err
}

func loadTitleRefs(db *sql.DB, t *Title, catID sql.NullInt64) error {
	if catID.Valid {
		c := &Category{}
		err := db.QueryRow(`SELECT id, name, slug FROM categories WHERE id = ?`, catID.Int64).
			Scan(&c.ID, &c.Name, &c.Slug)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil {
			t.Category = c
		}
	}

	rows, err := db.Query(`
		SELECT g.id, g.name, g.slug FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = ? ORDER BY g.name`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.Genres = []Genre{}
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return err
		}
		t.Genres = append(t.Genres, g)
	}
	return rows.Err()
}

func dbCreateTitle(db *sql.DB, t *Title, categoryID sql.NullInt64, genreIDs []int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO titles (name, year, description, category_id) VALUES (?, ?, ?, ?)`,
		t.Name, t.Year, t.Description, categoryID)
	if err != nil {
		return err
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`, t.ID, gid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// dbUpdateTitle replaces the genre set with genreIDs.
func dbUpdateTitle(db *sql.DB, t *Title, categoryID sql.NullInt64, genreIDs []int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE titles SET name = ?, year = ?, description = ?, category_id = ? WHERE id = ?`,
		t.Name, t.Year, t.Description, categoryID, t.ID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM title_genres WHERE title_id = ?`, t.ID); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`, t.ID, gid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Reviews (and their comments) cascade with the title.
func dbDeleteTitle(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM titles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
