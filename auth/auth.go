// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserHeader carries the authenticated user's id. It is set by the gateway
// in front of the service.
const UserHeader = "X-User-ID"

var (
	ErrMissingUser = errors.New("missing user identity")
	ErrInvalidUser = errors.New("invalid user identity")
)

// GenerateID creates a random UUID string for database records
func GenerateID() string {
	return uuid.NewString()
}

// UserIDFromRequest returns the caller's user id from the identity header.
// The value must be a UUID.
func UserIDFromRequest(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	if id == "" {
		return "", ErrMissingUser
	}
	if err := ValidateID(id); err != nil {
		return "", ErrInvalidUser
	}
	return id, nil
}

// ValidateID reports whether id is a well-formed UUID
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidUser
	}
	return nil
}
