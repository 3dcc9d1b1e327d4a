package main

import "time"

// Roles, lowest to highest privilege. The superuser flag is separate and
// grants admin-equivalent rights regardless of role.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

func validRole(role string) bool {
	return role == RoleUser || role == RoleModerator || role == RoleAdmin
}

type User struct {
	ID          int64  `json:"-"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Bio         string `json:"bio"`
	IsSuperuser bool   `json:"-"`
	// Bcrypt hash of the pending confirmation code.
	ConfirmationHash string    `json:"-"`
	Confirmed        bool      `json:"-"`
	CreatedAt        time.Time `json:"-"`
}

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Title struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	// Rating is the mean review score, null while the title has no reviews.
	Rating   *float64  `json:"rating"`
	Category *Category `json:"category"`
	Genres   []Genre   `json:"genre"`
}

type Review struct {
	ID       int64     `json:"id"`
	TitleID  int64     `json:"-"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Score    int       `json:"score"`
	PubDate  time.Time `json:"pub_date"`
}

type Comment struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"-"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}

// TokenPair is the response body of the token and refresh endpoints.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
