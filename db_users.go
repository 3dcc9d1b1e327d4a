package main

import (
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, username, email, role, bio, is_superuser, confirmation_hash, confirmed, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Bio,
		&u.IsSuperuser, &u.ConfirmationHash, &u.Confirmed, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func dbGetUserByUsername(db *sql.DB, username string) (*User, error) {
	u, err := scanUser(db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return u, err
}

// dbGetUserByEmail matches case-insensitively (the email column is NOCASE).
func dbGetUserByEmail(db *sql.DB, email string) (*User, error) {
	u, err := scanUser(db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with email %q: %w", email, ErrNotFound)
	}
	return u, err
}

func dbListUsers(db *sql.DB, username string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	args := []any{}
	if username != "" {
		query = `SELECT ` + userColumns + ` FROM users WHERE username = ? ORDER BY id`
		args = append(args, username)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func dbCreateUser(db *sql.DB, u *User) error {
	res, err := db.Exec(
		`INSERT INTO users (username, email, role, bio, is_superuser, confirmation_hash, confirmed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Role, u.Bio, u.IsSuperuser, u.ConfirmationHash, u.Confirmed)
	if isUniqueErr(err, "users.email") {
		return fieldError("email", "a user with this email already exists")
	}
	if isUniqueErr(err, "users.username") {
		return fieldError("username", "a user with this username already exists")
	}
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func dbUpdateUser(db *sql.DB, u *User) error {
	_, err := db.Exec(
		`UPDATE users SET username = ?, email = ?, role = ?, bio = ?,
		 confirmation_hash = ?, confirmed = ? WHERE id = ?`,
		u.Username, u.Email, u.Role, u.Bio, u.ConfirmationHash, u.Confirmed, u.ID)
	if isUniqueErr(err, "users.email") {
		return fieldError("email", "a user with this email already exists")
	}
	if isUniqueErr(err, "users.username") {
		return fieldError("username", "a user with this username already exists")
	}
	return err
}

// Reviews and comments cascade with the row.
func dbDeleteUser(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
