package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripshare/backend/internal/domain"
)

// UserRepo defines the persistence operations for user accounts.
// Emails are stored lowercased; callers normalize before calling.
type UserRepo interface {
	// Create inserts a new user. Returns domain.ErrConflict if the email is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// GetByEmail returns domain.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByID returns domain.ErrNotFound if no user has that id.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// UpdatePassword replaces the stored hash. Returns domain.ErrNotFound
	// if the user no longer exists.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error

	// Upsert inserts a user by email, or overwrites role and password hash
	// of the existing row. The original name is kept on conflict.
	Upsert(ctx context.Context, u domain.User) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, email, name, hashed_password, role, created_at, updated_at`

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (email, name, hashed_password, role)
		VALUES (@email, @name, @hashed_password, @role)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"email":           u.Email,
		"name":            u.Name,
		"hashed_password": u.HashedPassword,
		"role":            string(u.Role),
	})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, storeErr("repo.UserRepo.Create", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, storeErr("repo.UserRepo.GetByEmail", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, storeErr("repo.UserRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET hashed_password = @hash, updated_at = now() WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "hash": hash})
	if err != nil {
		return storeErr("repo.UserRepo.UpdatePassword", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.UserRepo.UpdatePassword: %w", domain.ErrNotFound)
	}
	return nil
}

// Upsert uses DO UPDATE so RETURNING fires on both the insert and the
// conflict path.
func (r *pgUserRepo) Upsert(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (email, name, hashed_password, role)
		VALUES (@email, @name, @hashed_password, @role)
		ON CONFLICT (email) DO UPDATE
		SET hashed_password = EXCLUDED.hashed_password,
		    role            = EXCLUDED.role,
		    updated_at      = now()
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"email":           u.Email,
		"name":            u.Name,
		"hashed_password": u.HashedPassword,
		"role":            string(u.Role),
	})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, storeErr("repo.UserRepo.Upsert", err)
	}
	return result, nil
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u    domain.User
		id   pgtype.UUID
		hash pgtype.Text
		role string
	)
	if err := s.Scan(&id, &u.Email, &u.Name, &hash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.HashedPassword = textPtr(hash)
	u.Role = domain.Role(role)
	return u, nil
}
