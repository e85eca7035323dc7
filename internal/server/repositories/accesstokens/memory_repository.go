package accesstokens

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/server/models"
)

// MemoryRepository is a process-local Repository. The secret index is
// checked and updated under the same lock, which gives the same atomic
// uniqueness guarantee as the database constraint. It backs the service and
// CLI tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]models.AccessToken
	bySecret map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]models.AccessToken),
		bySecret: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, token *models.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySecret[token.Secret]; taken {
		return fmt.Errorf("secret: %w", common.ErrorAlreadyExists)
	}
	if _, taken := r.byID[token.ID]; taken {
		return fmt.Errorf("id: %w", common.ErrorAlreadyExists)
	}

	r.byID[token.ID] = *token
	r.bySecret[token.Secret] = token.ID
	return nil
}

func (r *MemoryRepository) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*models.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySecret[secret]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t := r.byID[id]
	if !t.IsActive(now) {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListActive(ctx context.Context, now time.Time) ([]models.AccessToken, error) {
	return r.filter(func(t models.AccessToken) bool { return t.IsActive(now) }), nil
}

func (r *MemoryRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.AccessToken, error) {
	return r.filter(func(t models.AccessToken) bool { return t.UserID == userID && t.IsActive(now) }), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	delete(r.bySecret, t.Secret)
	return nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.byID {
		if !t.IsActive(now) {
			delete(r.byID, id)
			delete(r.bySecret, t.Secret)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) filter(keep func(models.AccessToken) bool) []models.AccessToken {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AccessToken, 0)
	for _, t := range r.byID {
		if keep(t) {
			out = append(out, t.Redacted())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
