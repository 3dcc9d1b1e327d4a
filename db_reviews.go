package main

import (
	"database/sql"
	"errors"
	"fmt"
)

const reviewColumns = `r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.created_at`

func scanReview(row interface{ Scan(...any) error }) (*Review, error) {
	r := &Review{}
	err := row.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.Author, &r.Text, &r.Score, &r.PubDate)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func dbListReviews(db *sql.DB, titleID int64) ([]Review, error) {
	rows, err := db.Query(`
		SELECT `+reviewColumns+` FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.title_id = ?
		ORDER BY r.created_at DESC, r.id DESC`, titleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func dbGetReview(db *sql.DB, titleID, id int64) (*Review, error) {
	r, err := scanReview(db.QueryRow(`
		SELECT `+reviewColumns+` FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = ? AND r.title_id = ?`, id, titleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	return r, err
}

// dbCreateReview enforces one review per (author, title). The pre-check gives
// the friendly error; the UNIQUE constraint is the guard under concurrency.
func dbCreateReview(db *sql.DB, r *Review) error {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM reviews WHERE title_id = ? AND author_id = ?`,
		r.TitleID, r.AuthorID).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return fieldError("title", "you have already reviewed this title")
	}

	res, err := db.Exec(`INSERT INTO reviews (title_id, author_id, text, score) VALUES (?, ?, ?, ?)`,
		r.TitleID, r.AuthorID, r.Text, r.Score)
	if isUniqueErr(err, "reviews.title_id") {
		return fieldError("title", "you have already reviewed this title")
	}
	if err != nil {
		return err
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	created, err := dbGetReview(db, r.TitleID, r.ID)
	if err != nil {
		return err
	}
	*r = *created
	return nil
}

func dbUpdateReview(db *sql.DB, r *Review) error {
	_, err := db.Exec(`UPDATE reviews SET text = ?, score = ? WHERE id = ?`, r.Text, r.Score, r.ID)
	return err
}

func dbDeleteReview(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Comments

const commentColumns = `c.id, c.review_id, c.author_id, u.username, c.text, c.created_at`

func scanComment(row interface{ Scan(...any) error }) (*Comment, error) {
	c := &Comment{}
	err := row.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Author, &c.Text, &c.PubDate)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func dbListComments(db *sql.DB, reviewID int64) ([]Comment, error) {
	rows, err := db.Query(`
		SELECT `+commentColumns+` FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.review_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func dbGetComment(db *sql.DB, reviewID, id int64) (*Comment, error) {
	c, err := scanComment(db.QueryRow(`
		SELECT `+commentColumns+` FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = ? AND c.review_id = ?`, id, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return c, err
}

func dbCreateComment(db *sql.DB, c *Comment) error {
	res, err := db.Exec(`INSERT INTO comments (review_id, author_id, text) VALUES (?, ?, ?)`,
		c.ReviewID, c.AuthorID, c.Text)
	if err != nil {
		return err
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	created, err := dbGetComment(db, c.ReviewID, c.ID)
	if err != nil {
		return err
	}
	*c = *created
	return nil
}

func dbUpdateComment(db *sql.DB, c *Comment) error {
	_, err := db.Exec(`UPDATE comments SET text = ? WHERE id = ?`, c.Text, c.ID)
	return err
}

func dbDeleteComment(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
