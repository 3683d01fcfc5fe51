package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/repo"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10
	// MinPasswordLength applies to password changes.
	MinPasswordLength = 8
)

// AccountService handles sign-up, credential verification, and password
// changes. Session tokens are issued by the auth package, not here.
type AccountService struct {
	users repo.UserRepo
}

// NewAccountService constructs an AccountService backed by the provided UserRepo.
func NewAccountService(users repo.UserRepo) *AccountService {
	return &AccountService{users: users}
}

// SignUp registers a new user with role USER. Returns domain.ErrConflict
// if the email is already registered.
func (s *AccountService) SignUp(ctx context.Context, email, password, name string) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return uuid.Nil, fmt.Errorf("service.AccountService.SignUp: %w: email and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.AccountService.SignUp: hash password: %w", err)
	}
	h := string(hash)

	u, err := s.users.Create(ctx, domain.User{
		Email:          email,
		Name:           strings.TrimSpace(name),
		HashedPassword: &h,
		Role:           domain.RoleUser,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.AccountService.SignUp: %w", err)
	}
	return u.ID, nil
}

// Authenticate verifies an email and password pair. Every failure mode
// (unknown email, no password set, wrong password) is domain.ErrUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Identity{}, fmt.Errorf("service.AccountService.Authenticate: %w", domain.ErrUnauthorized)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("service.AccountService.Authenticate: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("service.AccountService.Authenticate: %w", err)
	}
	if u.HashedPassword == nil || bcrypt.CompareHashAndPassword([]byte(*u.HashedPassword), []byte(password)) != nil {
		return domain.Identity{}, fmt.Errorf("service.AccountService.Authenticate: %w", domain.ErrUnauthorized)
	}
	return u.Identity(), nil
}

// ChangePassword replaces the password of who after verifying current.
func (s *AccountService) ChangePassword(ctx context.Context, who *domain.Identity, current, next string) error {
	if who == nil {
		return fmt.Errorf("service.AccountService.ChangePassword: %w", domain.ErrUnauthorized)
	}
	if current == "" || next == "" {
		return fmt.Errorf("service.AccountService.ChangePassword: %w: current and new password are required", domain.ErrValidation)
	}
	if len(next) < MinPasswordLength {
		return fmt.Errorf("service.AccountService.ChangePassword: %w: new password must be at least %d characters",
			domain.ErrValidation, MinPasswordLength)
	}

	u, err := s.users.GetByID(ctx, who.ID)
	if errors.Is(err, domain.ErrNotFound) {
		// The token outlived the account.
		return fmt.Errorf("service.AccountService.ChangePassword: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("service.AccountService.ChangePassword: %w", err)
	}
	if u.HashedPassword == nil {
		return fmt.Errorf("service.AccountService.ChangePassword: %w: no password set for this account", domain.ErrValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.HashedPassword), []byte(current)) != nil {
		return fmt.Errorf("service.AccountService.ChangePassword: %w: current password is incorrect", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), BcryptCost)
	if err != nil {
		return fmt.Errorf("service.AccountService.ChangePassword: hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("service.AccountService.ChangePassword: %w", err)
	}
	return nil
}

// EnsureAdmin creates or promotes the admin account. Safe to call on every boot.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, fmt.Errorf("service.AccountService.EnsureAdmin: %w: email and password are required", domain.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.EnsureAdmin: hash password: %w", err)
	}
	h := string(hash)

	u, err := s.users.Upsert(ctx, domain.User{
		Email:          email,
		Name:           "Admin",
		HashedPassword: &h,
		Role:           domain.RoleAdmin,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.EnsureAdmin: %w", err)
	}
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
