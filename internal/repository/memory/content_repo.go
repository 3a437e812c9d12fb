package memory

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"fmt"
	"slices"
	"sync"
)

type ContentRepository struct {
	mu       sync.RWMutex
	contents map[string]*domain.Content
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{
		contents: make(map[string]*domain.Content),
	}
}

func (r *ContentRepository) Save(ctx context.Context, content *domain.Content) error {
	if content == nil || content.ID == "" {
		return fmt.Errorf("%w: content id is required", repository.ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contents[content.ID]; exists {
		return fmt.Errorf("%w: content %s", repository.ErrDuplicate, content.ID)
	}

	r.contents[content.ID] = cloneContent(content)

	return nil
}

// GetByID returns a copy so callers cannot alter the stored snapshot.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	content, exists := r.contents[id]
	if !exists {
		return nil, fmt.Errorf("%w: content %s", repository.ErrNotFound, id)
	}
	return cloneContent(content), nil
}

func cloneContent(content *domain.Content) *domain.Content {
	c := *content
	c.Hashtags = slices.Clone(content.Hashtags)
	return &c
}
