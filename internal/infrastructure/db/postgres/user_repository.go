package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, COALESCE(phone, ''), password_hash, role,
	first_name, last_name, is_verified, created_at, updated_at, last_login_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		id        int64
		role      string
		lastLogin sql.NullTime
	)
	err := row.Scan(&id, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &role,
		&u.FirstName, &u.LastName, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = domain.IntID(id)
	u.Role = domain.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, column string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, arg))
}

// FindByID only matches integer ids; anything else cannot exist here.
func (r *UserRepository) FindByID(ctx context.Context, id domain.ID) (*domain.User, error) {
	n, ok := id.Int64()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, "id", n)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, "phone", phone)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	var phone sql.NullString
	if user.Phone != "" {
		phone = sql.NullString{String: user.Phone, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, phone, password_hash, role, first_name, last_name, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+userColumns,
		user.Username, user.Email, phone, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, user.IsVerified, user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	n, ok := id.Int64()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET role = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, string(role), n)
	return scanUser(row)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id domain.ID, at time.Time) error {
	n, ok := id.Int64()
	if !ok {
		return domain.ErrUserNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, n)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
