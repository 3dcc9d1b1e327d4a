package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail was sent")
	return m.sent[len(m.sent)-1]
}

func newTestApp(t *testing.T) (*application, *fakeMailer) {
	t.Helper()

	db, err := openDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrate(db))

	cfg := Config{
		JWTSecret:     "test-secret-0123456789abcdef0123",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		AuthRateLimit: 10000,
	}
	mailer := &fakeMailer{}
	app := &application{
		db:       db,
		cfg:      cfg,
		log:      zerolog.Nop(),
		tokens:   newTokenManager(cfg),
		mailer:   mailer,
		validate: newValidator(),
	}
	return app, mailer
}

func createUser(t *testing.T, app *application, username, email, role string) *User {
	t.Helper()
	u := &User{Username: username, Email: email, Role: role, Confirmed: true}
	require.NoError(t, dbCreateUser(app.db, u))
	return u
}

// bearer issues a valid access token header for u.
func bearer(t *testing.T, app *application, u *User) string {
	t.Helper()
	pair, err := app.tokens.pair(u)
	require.NoError(t, err)
	return "Bearer " + pair.Access
}

// doJSON runs a request through the full router.
func doJSON(t *testing.T, app *application, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}

func requireFieldError(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()
	requireStatus(t, rec, http.StatusBadRequest)
	env := decodeBody[errorEnvelope](t, rec)
	require.Equal(t, "validation_failed", env.Error.Code)
	require.Contains(t, env.Error.Fields, field)
}
