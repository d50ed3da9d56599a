package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cmapi/internal/model"
	"github.com/iliyamo/cmapi/internal/utils"
)

const userColumns = "id,email,hashed_password,api_key,credit,is_active,created_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.APIKey, &u.Credit, &u.IsActive, &u.CreatedAt)
	return u, err
}

// getOne runs a single-row user query and maps sql.ErrNoRows to ErrNotFound.
func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

// GetByEmail fetches a user by email, compared case-sensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email=?", email)
}

// GetByAPIKey fetches the user owning an API key.
func (r *UserRepo) GetByAPIKey(ctx context.Context, apiKey string) (model.User, error) {
	return r.getOne(ctx, "api_key=?", apiKey)
}

// List pages through users in insertion order.
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// Create inserts a user with a salted password digest and a fresh API key
// and returns the stored record.  The caller checks for an existing email
// first; the unique index turns a lost race into ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, salt string) (model.User, error) {
	apiKey, err := utils.NewAPIKey()
	if err != nil {
		return model.User{}, fmt.Errorf("generate api key: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, hashed_password, api_key, credit, is_active) VALUES (?,?,?,?,?)",
		email, utils.HashPassword(password, salt), apiKey, 0.0, true)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return r.GetByID(ctx, uint64(id))
}
