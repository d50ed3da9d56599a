package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cmapi/internal/model"
)

const cmColumns = "id,uid,owner_id,created_at"

// CMRepo persists confusion matrix metadata.  It never touches the
// artifact file cache.
type CMRepo struct{ DB *sql.DB }

func NewCMRepo(db *sql.DB) *CMRepo { return &CMRepo{DB: db} }

func scanCM(row rowScanner) (model.ConfusionMatrix, error) {
	var cm model.ConfusionMatrix
	err := row.Scan(&cm.ID, &cm.UID, &cm.OwnerID, &cm.CreatedAt)
	return cm, err
}

// Create inserts a metadata row for uid owned by ownerID.
func (r *CMRepo) Create(ctx context.Context, uid string, ownerID uint64) (model.ConfusionMatrix, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO cms (uid, owner_id) VALUES (?,?)", uid, ownerID)
	if err != nil {
		return model.ConfusionMatrix{}, fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ConfusionMatrix{}, fmt.Errorf("db error: %w", err)
	}
	return model.ConfusionMatrix{ID: uint64(id), UID: uid, OwnerID: ownerID}, nil
}

// GetByUID returns the first row with the given uid.
func (r *CMRepo) GetByUID(ctx context.Context, uid string) (model.ConfusionMatrix, error) {
	cm, err := scanCM(r.DB.QueryRowContext(ctx,
		"SELECT "+cmColumns+" FROM cms WHERE uid=? LIMIT 1", uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ConfusionMatrix{}, ErrNotFound
		}
		return model.ConfusionMatrix{}, fmt.Errorf("db error: %w", err)
	}
	return cm, nil
}

// List pages through all matrices in insertion order.
func (r *CMRepo) List(ctx context.Context, skip, limit int) ([]model.ConfusionMatrix, error) {
	return r.query(ctx, "SELECT "+cmColumns+" FROM cms ORDER BY id LIMIT ? OFFSET ?", limit, skip)
}

// ListByOwner returns every matrix owned by a user.
func (r *CMRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.ConfusionMatrix, error) {
	return r.query(ctx, "SELECT "+cmColumns+" FROM cms WHERE owner_id=? ORDER BY id", ownerID)
}

func (r *CMRepo) query(ctx context.Context, q string, args ...any) ([]model.ConfusionMatrix, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []model.ConfusionMatrix{}
	for rows.Next() {
		cm, err := scanCM(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// DeleteByUID removes the metadata row.  Cached files for the uid are left
// in place.
func (r *CMRepo) DeleteByUID(ctx context.Context, uid string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cms WHERE uid=? LIMIT 1", uid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
