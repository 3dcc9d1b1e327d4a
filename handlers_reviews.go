package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Reviews are nested under a title, comments under a review. The author is
// always the authenticated actor, never client input.

func (app *application) reviewFromPath(r *http.Request) (*Review, error) {
	t, err := app.titleFromPath(r)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	return dbGetReview(app.db, t.ID, id)
}

func (app *application) handleReviewList(w http.ResponseWriter, r *http.Request) {
	t, err := app.titleFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	reviews, err := dbListReviews(app.db, t.ID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []Review{}
	}
	app.writeJSON(w, http.StatusOK, reviews)
}

type createReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,min=1,max=10"`
}

func (app *application) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	if err := authorizeRequest(r, ActionCreate, PolicyOwnerOrStaff, 0); err != nil {
		app.writeError(w, r, err)
		return
	}
	t, err := app.titleFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	var req createReviewRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	review := &Review{TitleID: t.ID, AuthorID: actor.ID, Text: req.Text, Score: req.Score}
	if err := dbCreateReview(app.db, review); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, review)
}

func (app *application) handleReviewGet(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviewFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, review)
}

type updateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

func (app *application) handleReviewUpdate(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviewFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := authorizeRequest(r, ActionModify, PolicyOwnerOrStaff, review.AuthorID); err != nil {
		app.writeError(w, r, err)
		return
	}
	var req updateReviewRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := dbUpdateReview(app.db, review); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, review)
}

func (app *application) handleReviewDelete(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviewFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := authorizeRequest(r, ActionModify, PolicyOwnerOrStaff, review.AuthorID); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbDeleteReview(app.db, review.ID); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusNoContent, nil)
}

// Comments

func (app *application) commentFromPath(r *http.Request) (*Comment, error) {
	review, err := app.reviewFromPath(r)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	return dbGetComment(app.db, review.ID, id)
}

func (app *application) handleCommentList(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviewFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	comments, err := dbListComments(app.db, review.ID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	app.writeJSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (app *application) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	if err := authorizeRequest(r, ActionCreate, PolicyOwnerOrStaff, 0); err != nil {
		app.writeError(w, r, err)
		return
	}
	review, err := app.reviewFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	var req createCommentRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	comment := &Comment{ReviewID: review.ID, AuthorID: actor.ID, Text: req.Text}
	if err := dbCreateComment(app.db, comment); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, comment)
}

func (app *application) handleCommentGet(w http.ResponseWriter, r *http.Request) {
	comment, err := app.commentFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, comment)
}

func (app *application) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	comment, err := app.commentFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := authorizeRequest(r, ActionModify, PolicyOwnerOrStaff, comment.AuthorID); err != nil {
		app.writeError(w, r, err)
		return
	}
	var req createCommentRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	comment.Text = req.Text
	if err := dbUpdateComment(app.db, comment); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, comment)
}

func (app *application) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	comment, err := app.commentFromPath(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := authorizeRequest(r, ActionModify, PolicyOwnerOrStaff, comment.AuthorID); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbDeleteComment(app.db, comment.ID); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusNoContent, nil)
}
