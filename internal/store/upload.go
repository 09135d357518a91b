package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/patitas-adopcion/apiserver/types"
)

// UploadRepository tracks objects written to the image store.
type UploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	upload.CreatedAt = time.Now()

	const query = `
		INSERT INTO uploads (object_key, url, backend, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		upload.ObjectKey,
		upload.URL,
		upload.Backend,
		upload.CreatedAt,
	).Scan(&upload.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Upload{}, ErrConflict
		}
		return types.Upload{}, err
	}
	return upload, nil
}

// UnreferencedByURL returns the upload stored at url when no listing uses it.
// ErrNotFound covers both an unknown URL and a URL still in use.
func (r *UploadRepository) UnreferencedByURL(ctx context.Context, url string) (types.Upload, error) {
	const query = `
		SELECT u.id, u.object_key, u.url, u.backend, u.created_at
		FROM uploads u
		WHERE u.url = $1
		  AND NOT EXISTS (SELECT 1 FROM listings l WHERE l.image_url = u.url)`
	var upload types.Upload
	err := r.db.QueryRowContext(ctx, query, url).Scan(
		&upload.ID,
		&upload.ObjectKey,
		&upload.URL,
		&upload.Backend,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Upload{}, ErrNotFound
		}
		return types.Upload{}, err
	}
	return upload, nil
}

// Orphans returns uploads created before cutoff that no listing references,
// oldest first.
func (r *UploadRepository) Orphans(ctx context.Context, cutoff time.Time, limit int) ([]types.Upload, error) {
	if limit < 1 {
		limit = 100
	}

	const query = `
		SELECT u.id, u.object_key, u.url, u.backend, u.created_at
		FROM uploads u
		WHERE u.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM listings l WHERE l.image_url = u.url)
		ORDER BY u.created_at
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := make([]types.Upload, 0)
	for rows.Next() {
		var upload types.Upload
		if err := rows.Scan(
			&upload.ID,
			&upload.ObjectKey,
			&upload.URL,
			&upload.Backend,
			&upload.CreatedAt,
		); err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *UploadRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM uploads WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
