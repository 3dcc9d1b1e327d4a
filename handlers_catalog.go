package main

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Categories and genres share handlers parameterized by table, the same way
// the db helpers are.

type createRefRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"omitempty,max=50,slug"`
}

func (app *application) handleRefList(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := dbListRef(app.db, table)
		if err != nil {
			app.writeError(w, r, err)
			return
		}
		if items == nil {
			items = []Category{}
		}
		app.writeJSON(w, http.StatusOK, items)
	}
}

func (app *application) handleRefCreate(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := authorizeRequest(r, ActionCreate, PolicyCatalog, 0); err != nil {
			app.writeError(w, r, err)
			return
		}
		var req createRefRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, r, err)
			return
		}
		if req.Slug == "" {
			slug, err := uniqueSlug(app.db, table, req.Name)
			if err != nil {
				app.writeError(w, r, err)
				return
			}
			req.Slug = slug
		}
		c := &Category{Name: req.Name, Slug: req.Slug}
		if err := dbCreateRef(app.db, table, c); err != nil {
			app.writeError(w, r, err)
			return
		}
		app.writeJSON(w, http.StatusCreated, c)
	}
}

func (app *application) handleRefDelete(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := authorizeRequest(r, ActionModify, PolicyCatalog, 0); err != nil {
			app.writeError(w, r, err)
			return
		}
		if err := dbDeleteRefBySlug(app.db, table, chi.URLParam(r, "slug")); err != nil {
			app.writeError(w, r, err)
			return
		}
		app.writeJSON(w, http.StatusNoContent, nil)
	}
}

// Titles

func (app *application) handleTitleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := TitleFilter{
		Name:     q.Get("name"),
		Category: q.Get("category"),
		Genre:    q.Get("genre"),
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			app.writeError(w, r, fieldError("year", "must be an integer"))
			return
		}
		filter.Year = &year
	}

	titles, err := dbListTitles(app.db, filter)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if titles == nil {
		titles = []Title{}
	}
	app.writeJSON(w, http.StatusOK, titles)
}

type createTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required,pastyear"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,slug"`
	Genre       []string `json:"genre" validate:"omitempty,dive,slug"`
}

// resolveTitleRefs turns a category slug and genre slugs into row IDs,
// reporting unknown slugs as validation errors.
func (app *application) resolveTitleRefs(category string, genres []string) (sql.NullInt64, []int64, error) {
	var catID sql.NullInt64
	if category != "" {
		c, err := dbGetRefBySlug(app.db, "categories", category)
		if err != nil {
			if isNotFound(err) {
				return catID, nil, fieldError("category", "unknown category slug")
			}
			return catID, nil, err
		}
		catID = sql.NullInt64{Int64: c.ID, Valid: true}
	}
	var genreIDs []int64
	for _, slug := range genres {
		g, err := dbGetRefBySlug(app.db, "genres", slug)
		if err != nil {
			if isNotFound(err) {
				return catID, nil, fieldError("genre", "unknown genre slug: "+slug)
			}
			return catID, nil, err
		}
		genreIDs = append(genreIDs, g.ID)
	}
	return catID, genreIDs, nil
}

func (app *application) handleTitleCreate(w http.ResponseWriter, r *http.Request) {
	if err := authorizeRequest(r, ActionCreate, PolicyCatalog, 0); err != nil {
		app.writeError(w, r, err)
		return
	}
	var req createTitleRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	catID, genreIDs, err := app.resolveTitleRefs(req.Category, req.Genre)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	t := &Title{Name: req.Name, Year: req.Year, Description: req.Description}
	if err := dbCreateTitle(app.db, t, catID, genreIDs); err != nil {
		app.writeError(w, r, err)
		return
	}
	created, err := dbGetTitle(app.db, t.ID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, created)
}

func (app *application) titleFromPath(r *http.Request) (*Title, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "titleID"), 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	return dbGetTitle(app.db, id)
}

func (app *application) handleTitleGet(w http.ResponseWriter, r *http.Request) {
	t, err := app.titleFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, t)
}

type updateTitleRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=256"`
	Year        *int      `json:"year" validate:"omitempty,pastyear"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,slug"`
	Genre       *[]string `json:"genre" validate:"omitempty,dive,slug"`
}

func (app *application) handleTitleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := authorizeRequest(r, ActionModify, PolicyCatalog, 0); err != nil {
		app.writeError(w, r, err)
		return
	}
	t, err := app.titleFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	var req updateTitleRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Year != nil {
		t.Year = *req.Year
	}
	if req.Description != nil {
		t.Description = *req.Description
	}

	// Untouched fields keep their current values.
	catSlug := ""
	if t.Category != nil {
		catSlug = t.Category.Slug
	}
	if req.Category != nil {
		catSlug = *req.Category
	}
	var genreSlugs []string
	if req.Genre != nil {
		genreSlugs = *req.Genre
	} else {
		for _, g := range t.Genres {
			genreSlugs = append(genreSlugs, g.Slug)
		}
	}
	catID, genreIDs, err := app.resolveTitleRefs(catSlug, genreSlugs)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	if err := dbUpdateTitle(app.db, t, catID, genreIDs); err != nil {
		app.writeError(w, r, err)
		return
	}
	updated, err := dbGetTitle(app.db, t.ID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, updated)
}

func (app *application) handleTitleDelete(w http.ResponseWriter, r *http.Request) {
	if err := authorizeRequest(r, ActionModify, PolicyCatalog, 0); err != nil {
		app.writeError(w, r, err)
		return
	}
	t, err := app.titleFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbDeleteTitle(app.db, t.ID); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusNoContent, nil)
}
