package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"coaching-site-backend/internal/database"
)

var ErrAdminNotFound = errors.New("admin not found")

type Admin struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type AdminRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*Admin, error)
	ByEmail(ctx context.Context, email string) (*Admin, error)
	Count(ctx context.Context) (int, error)
}

type adminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, email, passwordHash string) (*Admin, error) {
	admin := &Admin{}
	query := r.db.Rebind(`INSERT INTO admins (email, password_hash) VALUES (?, ?) RETURNING id, email, password_hash, created_at`)
	if err := r.db.GetContext(ctx, admin, query, email, passwordHash); err != nil {
		if database.IsDuplicate(err) {
			return nil, database.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

func (r *adminRepository) ByEmail(ctx context.Context, email string) (*Admin, error) {
	admin := &Admin{}
	query := r.db.Rebind(`SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`)
	err := r.db.GetContext(ctx, admin, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}
