package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
)

const userColumns = "id, first_name, last_name, email, password, role, created_at"

type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u *repository.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return r.db.ExecQueryRow(ctx, `
        INSERT INTO users (first_name, last_name, email, password, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, u.FirstName, u.LastName, u.Email, string(hashedPassword), u.Role).Scan(&u.ID, &u.CreatedAt)
}

// EnsureAdmin creates the admin account unless a user with that email
// already exists.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO users (first_name, last_name, email, password, role)
        VALUES ('Admin', '', $1, $2, 'admin')
        ON CONFLICT (email) DO NOTHING
    `, email, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to seed admin %s: %w", email, err)
	}
	return nil
}

// Authenticate returns the user when password matches the stored hash.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (*repository.User, error) {
	var u repository.User
	err := r.db.Get(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, repository.ErrInvalidCredentials
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*repository.User, error) {
	var u repository.User
	err := r.db.Get(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*repository.User, error) {
	var users []*repository.User
	err := r.db.Select(ctx, &users, "SELECT "+userColumns+" FROM users WHERE role = $1 ORDER BY id", role)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users: %w", role, err)
	}
	return users, nil
}
