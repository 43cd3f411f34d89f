// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing time against brute-force resistance.
const bcryptCost = 12

// BasicAuthManager validates HTTP basic credentials against a single
// configured admin account.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager hashes the configured password at startup.
func NewBasicAuthManager(username, password string) (*BasicAuthManager, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("basic auth requires a username and password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &BasicAuthManager{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Authenticate checks the request's basic auth credentials.
func (m *BasicAuthManager) Authenticate(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return m.ValidateCredentials(username, password)
}

// ValidateCredentials checks a username and password pair. Both checks
// run unconditionally to keep timing independent of which one fails.
func (m *BasicAuthManager) ValidateCredentials(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	return userMatch && passMatch
}

// RequireAuth writes the challenge response for unauthenticated requests.
func (m *BasicAuthManager) RequireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="farmdata", charset="UTF-8"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// HashPassword hashes a customer password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
