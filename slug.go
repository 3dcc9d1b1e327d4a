package main

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugNonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugMultiDash = regexp.MustCompile(`-{2,}`)
)

func generateSlug(name string) string {
	s := strings.ToLower(name)
	s = slugNonAlnum.ReplaceAllString(s, "-")
	s = slugMultiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "untitled"
	}
	return s
}

// uniqueSlug derives a slug from name and suffixes a counter until it is
// free in the given table.
func uniqueSlug(db *sql.DB, table, name string) (string, error) {
	base := generateSlug(name)
	slug := base
	for i := 2; ; i++ {
		exists, err := dbSlugExists(db, table, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
