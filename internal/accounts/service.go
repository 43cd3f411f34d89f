// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package accounts implements customer registration and email
// verification.
package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/trentfarmdata/farmdata/internal/auth"
	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/mail"
	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// Errors returned by verification operations.
var (
	ErrIncorrectCode   = errors.New("incorrect verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrAlreadyVerified = errors.New("email is already verified")
	ErrNotVerified     = errors.New("email is not verified")
	ErrBadCredentials  = errors.New("invalid credentials")
)

// Store is the customer persistence the service needs.
type Store interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	SetVerifyCode(ctx context.Context, email, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, email string) error
	ExpireStaleCodes(ctx context.Context, now time.Time) (int64, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, kind string, msg mail.Message) error
}

// Service coordinates registration, verification, and code delivery.
type Service struct {
	store   Store
	mailer  Sender
	codeTTL time.Duration
}

// NewService creates the accounts service.
func NewService(store Store, mailer Sender, codeTTL time.Duration) *Service {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &Service{
		store:   store,
		mailer:  mailer,
		codeTTL: codeTTL,
	}
}

// Register creates an unverified customer and emails the verification
// code. A failed email send still creates the account; the response
// reports EmailSent false so the client can request a resend.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generating verification code: %w", err)
	}
	expiresAt := time.Now().Add(s.codeTTL).UTC()

	customer := &models.Customer{
		Email:         email,
		Name:          req.Name,
		PasswordHash:  hash,
		VerifyCode:    code,
		CodeExpiresAt: &expiresAt,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			metrics.RecordRegistration("duplicate")
		} else {
			metrics.RecordRegistration("error")
		}
		return nil, err
	}

	emailSent := true
	if err := s.mailer.Send(ctx, "verification",
		mail.VerificationMessage(email, req.Name, code)); err != nil {
		emailSent = false
		logger := logging.Ctx(ctx)
		logger.Warn().
			Err(err).
			Str("email", email).
			Msg("Verification email not delivered")
	}

	metrics.RecordRegistration("success")
	message := "Registration successful. Check your email for the verification code."
	if !emailSent {
		message = "Registration successful, but the verification email could not be sent. Request a new code."
	}
	return &models.RegisterResponse{
		Email:     email,
		EmailSent: emailSent,
		Message:   message,
	}, nil
}

// Verify marks a customer verified when the code matches and has not
// expired.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) error {
	email := normalizeEmail(req.Email)

	customer, err := s.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		return err
	}
	if customer.Verified {
		return ErrAlreadyVerified
	}
	if customer.VerifyCode == "" || customer.VerifyCode != req.Code {
		return ErrIncorrectCode
	}
	if customer.CodeExpiresAt == nil || time.Now().After(*customer.CodeExpiresAt) {
		return ErrCodeExpired
	}

	if err := s.store.MarkVerified(ctx, email); err != nil {
		return err
	}
	logger := logging.Ctx(ctx)
	logger.Info().Str("email", email).Msg("Customer verified")
	return nil
}

// Resend issues a fresh code to an unverified customer and emails it.
func (s *Service) Resend(ctx context.Context, req models.ResendRequest) error {
	email := normalizeEmail(req.Email)

	customer, err := s.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		return err
	}
	if customer.Verified {
		return ErrAlreadyVerified
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}
	expiresAt := time.Now().Add(s.codeTTL).UTC()
	if err := s.store.SetVerifyCode(ctx, email, code, expiresAt); err != nil {
		return err
	}

	return s.mailer.Send(ctx, "verification",
		mail.VerificationMessage(email, customer.Name, code))
}

// Authenticate validates customer credentials for token issuance.
// Unverified customers cannot log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Customer, error) {
	customer, err := s.store.GetCustomerByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !customer.Verified {
		return nil, ErrNotVerified
	}
	if !auth.CheckPassword(customer.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return customer, nil
}

// List returns all customers for the admin endpoint.
func (s *Service) List(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// generateCode returns a 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
