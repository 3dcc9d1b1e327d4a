package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// reservedUsername is the self-service path segment and can never be a
// real account name.
const reservedUsername = "me"

// ---------- tokens ----------

type tokenClaims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTokenManager(cfg Config) *tokenManager {
	return &tokenManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

func (m *tokenManager) sign(u *User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		Username:  u.Username,
		Role:      u.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// pair issues the access+refresh tokens returned by the token endpoints.
func (m *tokenManager) pair(u *User) (TokenPair, error) {
	access, err := m.sign(u, "access", m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(u, "refresh", m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *tokenManager) parse(raw, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("token is not a %s token", wantType)
	}
	return claims, nil
}

// ---------- registration flow ----------

// signup registers a username/email pair and mails out a fresh confirmation
// code. Re-submitting the exact same pair rotates the code and resends the
// mail; any collision with a different account is a validation error. The
// user row is committed before dispatch, so a mail failure leaves a pending
// row behind whose code can be rotated by signing up again.
func (app *application) signup(ctx context.Context, username, email string) error {
	if strings.EqualFold(username, reservedUsername) {
		return fieldError("username", `username "me" is reserved`)
	}

	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash confirmation code: %w", err)
	}

	existing, err := dbGetUserByUsername(app.db, username)
	switch {
	case err == nil:
		if !strings.EqualFold(existing.Email, email) {
			return fieldError("username", "a user with this username already exists")
		}
		existing.ConfirmationHash = string(hash)
		if err := dbUpdateUser(app.db, existing); err != nil {
			return err
		}
	case errors.Is(err, ErrNotFound):
		if other, err := dbGetUserByEmail(app.db, email); err == nil && other != nil {
			return fieldError("email", "a user with this email already exists")
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		u := &User{
			Username:         username,
			Email:            email,
			Role:             RoleUser,
			ConfirmationHash: string(hash),
		}
		if err := dbCreateUser(app.db, u); err != nil {
			return err
		}
	default:
		return err
	}

	subject := "critica confirmation code"
	body := fmt.Sprintf("Confirmation code: %s", code)
	if err := app.mailer.Send(ctx, email, subject, body); err != nil {
		app.log.Error().Err(err).Str("username", username).Msg("confirmation mail dispatch failed")
		return fmt.Errorf("%w: %v", ErrMailDispatch, err)
	}
	app.log.Info().Str("username", username).Msg("confirmation code dispatched")
	return nil
}

// issueTokens exchanges (username, confirmation code) for a token pair.
// Unknown username is a not-found error; a wrong code is a validation error.
func (app *application) issueTokens(username, code string) (TokenPair, error) {
	u, err := dbGetUserByUsername(app.db, username)
	if err != nil {
		return TokenPair{}, err
	}
	if u.ConfirmationHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.ConfirmationHash), []byte(code)) != nil {
		return TokenPair{}, fieldError("confirmation_code", "confirmation code is not valid")
	}
	if !u.Confirmed {
		u.Confirmed = true
		if err := dbUpdateUser(app.db, u); err != nil {
			return TokenPair{}, err
		}
	}
	return app.tokens.pair(u)
}

func (app *application) refreshTokens(refresh string) (TokenPair, error) {
	claims, err := app.tokens.parse(refresh, "refresh")
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	u, err := dbGetUserByUsername(app.db, claims.Username)
	if err != nil {
		return TokenPair{}, err
	}
	return app.tokens.pair(u)
}

// ---------- middleware ----------

type ctxKeyActor struct{}

func actorFrom(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKeyActor{}).(*User)
	return u
}

// authenticate resolves a Bearer token to the current user. Requests without
// a token pass through anonymously; requests with a bad token are rejected.
// The user is re-read from the store so role changes apply immediately.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			app.writeError(w, r, fmt.Errorf("%w: malformed authorization header", ErrUnauthorized))
			return
		}
		claims, err := app.tokens.parse(raw, "access")
		if err != nil {
			app.writeError(w, r, fmt.Errorf("%w: %v", ErrUnauthorized, err))
			return
		}
		u, err := dbGetUserByUsername(app.db, claims.Username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				err = fmt.Errorf("%w: unknown token subject", ErrUnauthorized)
			}
			app.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor{}, u)))
	})
}

// requireActor returns the authenticated user or an unauthorized error.
func requireActor(r *http.Request) (*User, error) {
	u := actorFrom(r.Context())
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// authorizeRequest adapts the pure authorize decision to a request error:
// anonymous denials are 401, authenticated ones 403. Handlers call it before
// touching the store, so a denial never has side effects.
func authorizeRequest(r *http.Request, action Action, policy Policy, ownerID int64) error {
	actor := actorFrom(r.Context())
	if authorize(actor, action, policy, ownerID) {
		return nil
	}
	if actor == nil {
		return ErrUnauthorized
	}
	return ErrForbidden
}
