// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package models

import "time"

// Customer is a registered API user. The password hash and the
// verification code never leave the server.
type Customer struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"`
	Verified      bool       `json:"verified"`
	VerifyCode    string     `json:"-"`
	CodeExpiresAt *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RegisterRequest is the payload for customer registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// VerifyRequest is the payload for email verification.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendRequest is the payload for resending a verification code.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterResponse reports the outcome of a registration. EmailSent is
// false when the account was created but the verification email could
// not be delivered.
type RegisterResponse struct {
	Email     string `json:"email"`
	EmailSent bool   `json:"email_sent"`
	Message   string `json:"message"`
}

// LoginRequest is the payload for token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued JWT.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
