package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"upload-converter/internal/domain"
	"upload-converter/internal/repository/upload"
)

// AttachmentsRepository keeps attachment records in process memory. It backs
// the service when no database is configured.
type AttachmentsRepository struct {
	mu          sync.RWMutex
	attachments map[string]domain.Attachment
}

func NewAttachmentsRepository() *AttachmentsRepository {
	return &AttachmentsRepository{
		attachments: make(map[string]domain.Attachment),
	}
}

func (r *AttachmentsRepository) Save(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.attachments[attachment.ID]; ok {
		return fmt.Errorf("attachment %s: %w", attachment.ID, upload.ErrDuplicateKey)
	}
	r.attachments[attachment.ID] = *attachment
	return nil
}

func (r *AttachmentsRepository) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attachment, ok := r.attachments[id]
	if !ok {
		return nil, upload.ErrAttachmentNotFound
	}
	return &attachment, nil
}

// List returns attachments newest first.
func (r *AttachmentsRepository) List(_ context.Context, limit, offset int) ([]domain.Attachment, error) {
	r.mu.RLock()
	all := make([]domain.Attachment, 0, len(r.attachments))
	for _, a := range r.attachments {
		all = append(all, a)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *AttachmentsRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.attachments[id]; !ok {
		return upload.ErrAttachmentNotFound
	}
	delete(r.attachments, id)
	return nil
}
