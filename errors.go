package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Request-scoped error classes. Handlers return these (possibly wrapped) and
// writeError maps them to HTTP statuses in one place.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
	// ErrMailDispatch marks a mail collaborator failure. The user row may
	// already be persisted at that point; this is surfaced, not hidden.
	ErrMailDispatch = errors.New("confirmation mail dispatch failed")
)

// FieldErrors is a validation failure with per-field detail.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) FieldErrors {
	return FieldErrors{field: msg}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
