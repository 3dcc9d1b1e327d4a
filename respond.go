package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Fields  FieldErrors `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps the error taxonomy to HTTP statuses. Anything unclassified
// is a 500 and gets logged with its cause; the client only sees a generic
// message.
func (app *application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe FieldErrors

	status := http.StatusInternalServerError
	body := errorBody{Code: "internal_error", Message: "internal server error"}

	switch {
	case errors.As(err, &fe):
		status = http.StatusBadRequest
		body = errorBody{Code: "validation_failed", Message: "validation failed", Fields: fe}
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		body = errorBody{Code: "not_found", Message: err.Error()}
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
		body = errorBody{Code: "unauthorized", Message: err.Error()}
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
		body = errorBody{Code: "forbidden", Message: err.Error()}
	case errors.Is(err, ErrMailDispatch):
		status = http.StatusBadGateway
		body = errorBody{Code: "mail_dispatch_failed", Message: err.Error()}
	default:
		app.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}

	app.writeJSON(w, status, errorEnvelope{Error: body})
}

// requestLogger is the access log: method, path, status, duration.
func (app *application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := nowFunc()
		next.ServeHTTP(sw, r)
		app.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", nowFunc().Sub(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
