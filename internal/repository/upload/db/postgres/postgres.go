package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"upload-converter/internal/domain"
	"upload-converter/internal/repository/upload"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type AttachmentsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewAttachmentsRepository(db *dbpg.DB, retries retry.Strategy) *AttachmentsRepository {
	return &AttachmentsRepository{
		db:      db,
		retries: retries,
	}
}

func (r *AttachmentsRepository) Save(ctx context.Context, a *domain.Attachment) error {
	query := `
		INSERT INTO attachments (
			id, original_filename, file_path, url, mime_type,
			size, width, height, conversion, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		a.ID,
		a.OriginalFilename,
		a.FilePath,
		a.URL,
		a.MimeType,
		a.Size,
		a.Width,
		a.Height,
		a.Conversion,
		a.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("attachment %s: %w", a.ID, upload.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save attachment: %w", err)
	}

	return nil
}

func (r *AttachmentsRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	query := `
		SELECT id, original_filename, file_path, url, mime_type,
		       size, width, height, conversion, created_at
		FROM attachments
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment: %w", err)
	}

	var a domain.Attachment
	err = row.Scan(
		&a.ID,
		&a.OriginalFilename,
		&a.FilePath,
		&a.URL,
		&a.MimeType,
		&a.Size,
		&a.Width,
		&a.Height,
		&a.Conversion,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, upload.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attachment: %w", err)
	}

	return &a, nil
}

func (r *AttachmentsRepository) List(ctx context.Context, limit, offset int) ([]domain.Attachment, error) {
	query := `
		SELECT id, original_filename, file_path, url, mime_type,
		       size, width, height, conversion, created_at
		FROM attachments
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		err := rows.Scan(
			&a.ID,
			&a.OriginalFilename,
			&a.FilePath,
			&a.URL,
			&a.MimeType,
			&a.Size,
			&a.Width,
			&a.Height,
			&a.Conversion,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}

func (r *AttachmentsRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM attachments WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return upload.ErrAttachmentNotFound
	}

	return nil
}
